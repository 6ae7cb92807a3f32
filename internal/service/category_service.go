package service

import (
	"context"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryService handles budget category business logic
type CategoryService struct {
	siteEvents
	attachmentCleanup
	categoryRepo domain.CategoryRepository
	siteRepo     domain.SiteRepository
	expenseRepo  domain.ExpenseRepository
	diaryRepo    domain.DiaryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo domain.CategoryRepository,
	siteRepo domain.SiteRepository,
	expenseRepo domain.ExpenseRepository,
	diaryRepo domain.DiaryRepository,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		siteRepo:     siteRepo,
		expenseRepo:  expenseRepo,
		diaryRepo:    diaryRepo,
	}
}

// CategoryInput contains input for creating or updating a category
type CategoryInput struct {
	Name         string
	BudgetAmount decimal.Decimal
	IsActive     *bool
}

func validateCategoryInput(input CategoryInput) (string, error) {
	name, err := validateName(input.Name, domain.MaxCategoryNameLength)
	if err != nil {
		return "", err
	}
	if input.BudgetAmount.IsNegative() {
		return "", domain.ErrBudgetNegative
	}
	return name, nil
}

// CreateCategory creates a category under an existing site
func (s *CategoryService) CreateCategory(ctx context.Context, siteID uuid.UUID, input CategoryInput) (*domain.Category, error) {
	name, err := validateCategoryInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	category := &domain.Category{
		SiteID:       siteID,
		Name:         name,
		BudgetAmount: input.BudgetAmount,
		IsActive:     true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	created, err := s.categoryRepo.Create(ctx, category)
	if err != nil {
		return nil, err
	}
	s.publishEvent(siteID, websocket.EntityCreated(websocket.EntityTypeCategory, created))
	return created, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

// ListCategories retrieves all categories of a site
func (s *CategoryService) ListCategories(ctx context.Context, siteID uuid.UUID) ([]*domain.Category, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	return s.categoryRepo.ListBySite(ctx, siteID)
}

// UpdateCategory updates a category's name, budget and active flag
func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	existing, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err := validateCategoryInput(input)
	if err != nil {
		return nil, err
	}

	existing.Name = name
	existing.BudgetAmount = input.BudgetAmount
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}

	updated, err := s.categoryRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.publishEvent(updated.SiteID, websocket.EntityUpdated(websocket.EntityTypeCategory, updated))
	return updated, nil
}

// DeleteCategory deletes a category together with its expenses and diary entries
func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if s.attachments != nil {
		s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindCategory, ID: category.ID}, category.Attachments)
		if expenses, err := s.expenseRepo.ListBySite(ctx, category.SiteID); err == nil {
			for _, e := range expenses {
				if e.CategoryID == category.ID {
					s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindExpense, ID: e.ID}, e.Attachments)
				}
			}
		}
		if entries, err := s.diaryRepo.ListBySite(ctx, category.SiteID); err == nil {
			for _, d := range entries {
				if d.CategoryID == category.ID {
					s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindDiary, ID: d.ID}, d.Attachments)
				}
			}
		}
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(category.SiteID, websocket.EntityDeleted(websocket.EntityTypeCategory, map[string]interface{}{"id": id}))
	return nil
}

// requireSiteCategory loads a category and checks it belongs to siteID
func requireSiteCategory(ctx context.Context, repo domain.CategoryRepository, siteID, categoryID uuid.UUID) (*domain.Category, error) {
	category, err := repo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category.SiteID != siteID {
		return nil, domain.ErrCategorySiteMismatch
	}
	return category, nil
}
