package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// testEnv wires every service over in-memory mocks
type testEnv struct {
	sites      *testutil.MockSiteRepository
	categories *testutil.MockCategoryRepository
	incomes    *testutil.MockIncomeRepository
	expenses   *testutil.MockExpenseRepository
	diary      *testutil.MockDiaryRepository
	owners     *testutil.MockAttachmentOwnerRepository
	storage    *testutil.MockObjectStorage
	local      *testutil.MockLocalStore
	publisher  *testutil.MockEventPublisher

	attachments *AttachmentService
	integrity   *IntegrityService
}

func testAttachmentConfig() config.AttachmentConfig {
	return config.AttachmentConfig{
		MaxImageSize:    1 << 20,
		MaxDocumentSize: 1 << 20,
	}
}

func testIntegrityConfig() config.IntegrityConfig {
	return config.IntegrityConfig{
		ProbeTimeout: time.Second,
		HistoryLimit: 20,
	}
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sites:      testutil.NewMockSiteRepository(),
		categories: testutil.NewMockCategoryRepository(),
		incomes:    testutil.NewMockIncomeRepository(),
		expenses:   testutil.NewMockExpenseRepository(),
		diary:      testutil.NewMockDiaryRepository(),
		storage:    testutil.NewMockObjectStorage(),
		local:      testutil.NewMockLocalStore(),
		publisher:  testutil.NewMockEventPublisher(),
	}
	env.owners = testutil.NewMockAttachmentOwnerRepository(env.sites, env.categories, env.incomes, env.expenses, env.diary)

	env.attachments = NewAttachmentService(env.storage, env.local, env.owners, testAttachmentConfig(), zerolog.Nop())
	env.attachments.now = func() time.Time { return fixedNow }
	env.attachments.SetEventPublisher(env.publisher)

	env.integrity = NewIntegrityService(env.owners, env.storage, env.local, testIntegrityConfig(), zerolog.Nop())
	env.integrity.SetEventPublisher(env.publisher)
	return env
}

func (e *testEnv) addSite(name string) *domain.Site {
	site := &domain.Site{ID: uuid.New(), Name: name, IsActive: true, CreatedAt: fixedNow}
	e.sites.AddSite(site)
	return site
}

func (e *testEnv) addCategory(siteID uuid.UUID, name string, budget int64) *domain.Category {
	category := &domain.Category{
		ID:           uuid.New(),
		SiteID:       siteID,
		Name:         name,
		BudgetAmount: decimal.NewFromInt(budget),
		IsActive:     true,
		CreatedAt:    fixedNow,
	}
	e.categories.AddCategory(category)
	return category
}

func (e *testEnv) addExpense(siteID, categoryID uuid.UUID, amount int64) *domain.Expense {
	expense := &domain.Expense{
		ID:         uuid.New(),
		SiteID:     siteID,
		CategoryID: categoryID,
		Amount:     decimal.NewFromInt(amount),
		Content:    "materials",
		Date:       fixedNow,
	}
	e.expenses.Expenses[expense.ID] = expense
	return expense
}

// pngBytes encodes a small solid PNG
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
