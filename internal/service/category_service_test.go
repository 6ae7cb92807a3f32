package service

import (
	"context"
	"testing"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCategoryService(env *testEnv) *CategoryService {
	svc := NewCategoryService(env.categories, env.sites, env.expenses, env.diary)
	svc.SetEventPublisher(env.publisher)
	svc.SetAttachmentService(env.attachments)
	return svc
}

func TestCreateCategory_Success(t *testing.T) {
	env := newTestEnv()
	svc := newTestCategoryService(env)
	site := env.addSite("Harbour Tower")

	category, err := svc.CreateCategory(context.Background(), site.ID, CategoryInput{
		Name:         " Electrical ",
		BudgetAmount: decimal.NewFromInt(25000),
	})
	require.NoError(t, err)

	assert.Equal(t, site.ID, category.SiteID)
	assert.Equal(t, "Electrical", category.Name)
	assert.True(t, category.BudgetAmount.Equal(decimal.NewFromInt(25000)))
	assert.True(t, category.IsActive)
	assert.Equal(t, []string{"category.created", "category.created"}, env.publisher.Types())
}

func TestCreateCategory_ZeroBudgetAllowed(t *testing.T) {
	env := newTestEnv()
	svc := newTestCategoryService(env)
	site := env.addSite("Harbour Tower")

	category, err := svc.CreateCategory(context.Background(), site.ID, CategoryInput{Name: "Contingency"})
	require.NoError(t, err)
	assert.True(t, category.BudgetAmount.IsZero())
}

func TestCreateCategory_Errors(t *testing.T) {
	env := newTestEnv()
	svc := newTestCategoryService(env)
	site := env.addSite("Harbour Tower")

	_, err := svc.CreateCategory(context.Background(), uuid.New(), CategoryInput{Name: "Steel"})
	assert.ErrorIs(t, err, domain.ErrSiteNotFound)

	_, err = svc.CreateCategory(context.Background(), site.ID, CategoryInput{Name: "Steel", BudgetAmount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrBudgetNegative)

	_, err = svc.CreateCategory(context.Background(), site.ID, CategoryInput{Name: ""})
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	assert.Empty(t, env.categories.Categories)
}

func TestUpdateCategory(t *testing.T) {
	env := newTestEnv()
	svc := newTestCategoryService(env)
	site := env.addSite("Harbour Tower")
	category := env.addCategory(site.ID, "Steel", 1000)
	inactive := false

	updated, err := svc.UpdateCategory(context.Background(), category.ID, CategoryInput{
		Name:         "Structural steel",
		BudgetAmount: decimal.NewFromInt(1500),
		IsActive:     &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Structural steel", updated.Name)
	assert.True(t, updated.BudgetAmount.Equal(decimal.NewFromInt(1500)))
	assert.False(t, updated.IsActive)
}

func TestListCategories_SiteNotFound(t *testing.T) {
	env := newTestEnv()
	svc := newTestCategoryService(env)

	_, err := svc.ListCategories(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrSiteNotFound)
}

func TestDeleteCategory_PurgesOwnRecordsOnly(t *testing.T) {
	env := newTestEnv()
	svc := newTestCategoryService(env)
	site := env.addSite("Harbour Tower")
	steel := env.addCategory(site.ID, "Steel", 1000)
	paint := env.addCategory(site.ID, "Paint", 500)
	steelExpense := env.addExpense(site.ID, steel.ID, 100)
	paintExpense := env.addExpense(site.ID, paint.ID, 50)

	steelPath := "expenses/" + steelExpense.ID.String() + "/images/1_a.jpg"
	paintPath := "expenses/" + paintExpense.ID.String() + "/images/2_b.jpg"
	steelExpense.Attachments.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, env.storage.Put(steelPath, []byte("a"))))
	paintExpense.Attachments.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, env.storage.Put(paintPath, []byte("b"))))

	require.NoError(t, svc.DeleteCategory(context.Background(), steel.ID))

	assert.NotContains(t, env.categories.Categories, steel.ID)
	assert.NotContains(t, env.storage.Objects, steelPath)
	assert.Contains(t, env.storage.Objects, paintPath)
}
