package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/dafibh/sitebook/sitebook-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// handlerEnv wires every handler over in-memory mocks
type handlerEnv struct {
	e *echo.Echo

	sites      *testutil.MockSiteRepository
	categories *testutil.MockCategoryRepository
	incomes    *testutil.MockIncomeRepository
	expenses   *testutil.MockExpenseRepository
	diary      *testutil.MockDiaryRepository
	storage    *testutil.MockObjectStorage
	local      *testutil.MockLocalStore

	site        *SiteHandler
	category    *CategoryHandler
	transaction *TransactionHandler
	diaryH      *DiaryHandler
	budget      *BudgetHandler
	attachment  *AttachmentHandler
	integrity   *IntegrityHandler
}

func newHandlerEnv() *handlerEnv {
	env := &handlerEnv{
		e:          echo.New(),
		sites:      testutil.NewMockSiteRepository(),
		categories: testutil.NewMockCategoryRepository(),
		incomes:    testutil.NewMockIncomeRepository(),
		expenses:   testutil.NewMockExpenseRepository(),
		diary:      testutil.NewMockDiaryRepository(),
		storage:    testutil.NewMockObjectStorage(),
		local:      testutil.NewMockLocalStore(),
	}
	return env.wire(env.storage)
}

// newLocalOnlyHandlerEnv wires the handlers without object storage
func newLocalOnlyHandlerEnv() *handlerEnv {
	env := newHandlerEnv()
	return env.wire(nil)
}

func (env *handlerEnv) wire(storage domain.ObjectStorage) *handlerEnv {
	owners := testutil.NewMockAttachmentOwnerRepository(env.sites, env.categories, env.incomes, env.expenses, env.diary)
	attachmentService := service.NewAttachmentService(storage, env.local, owners, config.AttachmentConfig{
		MaxImageSize:    1 << 20,
		MaxDocumentSize: 1 << 20,
	}, zerolog.Nop())
	integrityService := service.NewIntegrityService(owners, storage, env.local, config.IntegrityConfig{
		ProbeTimeout: time.Second,
		HistoryLimit: 20,
	}, zerolog.Nop())

	siteService := service.NewSiteService(env.sites, env.categories, env.incomes, env.expenses, env.diary)
	siteService.SetAttachmentService(attachmentService)
	categoryService := service.NewCategoryService(env.categories, env.sites, env.expenses, env.diary)
	categoryService.SetAttachmentService(attachmentService)
	incomeService := service.NewIncomeService(env.incomes, env.sites)
	incomeService.SetAttachmentService(attachmentService)
	expenseService := service.NewExpenseService(env.expenses, env.categories, env.sites)
	expenseService.SetAttachmentService(attachmentService)
	diaryService := service.NewDiaryService(env.diary, env.categories, env.sites)
	diaryService.SetAttachmentService(attachmentService)
	budgetService := service.NewBudgetService(env.sites, env.categories, env.incomes, env.expenses)
	exportService := service.NewExportService(budgetService, env.categories, env.incomes, env.expenses)

	env.site = NewSiteHandler(siteService)
	env.category = NewCategoryHandler(categoryService)
	env.transaction = NewTransactionHandler(incomeService, expenseService)
	env.diaryH = NewDiaryHandler(diaryService)
	env.budget = NewBudgetHandler(budgetService, exportService)
	env.attachment = NewAttachmentHandler(attachmentService)
	env.integrity = NewIntegrityHandler(integrityService)
	return env
}

func (env *handlerEnv) addSite(name string) *domain.Site {
	site := &domain.Site{ID: uuid.New(), Name: name, IsActive: true}
	env.sites.AddSite(site)
	return site
}

func (env *handlerEnv) addCategory(siteID uuid.UUID, name string, budget int64) *domain.Category {
	category := &domain.Category{
		ID:           uuid.New(),
		SiteID:       siteID,
		Name:         name,
		BudgetAmount: decimal.NewFromInt(budget),
		IsActive:     true,
	}
	env.categories.AddCategory(category)
	return category
}

// newContext builds an echo context for a request with optional path params as name, value pairs
func (env *handlerEnv) newContext(method, target string, body io.Reader, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

// multipartBody encodes files under the attachment form field
func multipartBody(t *testing.T, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := writer.CreateFormFile(AttachmentFormField, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
