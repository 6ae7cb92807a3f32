package service

import (
	"context"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseService handles expense business logic
type ExpenseService struct {
	siteEvents
	attachmentCleanup
	expenseRepo  domain.ExpenseRepository
	categoryRepo domain.CategoryRepository
	siteRepo     domain.SiteRepository
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo domain.ExpenseRepository,
	categoryRepo domain.CategoryRepository,
	siteRepo domain.SiteRepository,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		siteRepo:     siteRepo,
	}
}

// ExpenseInput contains input for creating or updating an expense record
type ExpenseInput struct {
	CategoryID uuid.UUID
	Amount     decimal.Decimal
	Content    string
	Date       time.Time
}

func validateExpenseInput(input ExpenseInput) (string, error) {
	if err := validateAmount(input.Amount); err != nil {
		return "", err
	}
	if err := validateDate(input.Date); err != nil {
		return "", err
	}
	return validateContent(input.Content)
}

// CreateExpense records money spent on a site against one of its categories
func (s *ExpenseService) CreateExpense(ctx context.Context, siteID uuid.UUID, input ExpenseInput) (*domain.Expense, error) {
	content, err := validateExpenseInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	if _, err := requireSiteCategory(ctx, s.categoryRepo, siteID, input.CategoryID); err != nil {
		return nil, err
	}

	created, err := s.expenseRepo.Create(ctx, &domain.Expense{
		SiteID:     siteID,
		CategoryID: input.CategoryID,
		Amount:     input.Amount,
		Content:    content,
		Date:       input.Date,
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(siteID, websocket.EntityCreated(websocket.EntityTypeExpense, created))
	return created, nil
}

// GetExpense retrieves an expense record by ID
func (s *ExpenseService) GetExpense(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	return s.expenseRepo.GetByID(ctx, id)
}

// ListExpenses retrieves all expense records of a site
func (s *ExpenseService) ListExpenses(ctx context.Context, siteID uuid.UUID) ([]*domain.Expense, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	return s.expenseRepo.ListBySite(ctx, siteID)
}

// UpdateExpense updates an expense record
func (s *ExpenseService) UpdateExpense(ctx context.Context, id uuid.UUID, input ExpenseInput) (*domain.Expense, error) {
	existing, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := validateExpenseInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := requireSiteCategory(ctx, s.categoryRepo, existing.SiteID, input.CategoryID); err != nil {
		return nil, err
	}

	existing.CategoryID = input.CategoryID
	existing.Amount = input.Amount
	existing.Content = content
	existing.Date = input.Date

	updated, err := s.expenseRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.publishEvent(updated.SiteID, websocket.EntityUpdated(websocket.EntityTypeExpense, updated))
	return updated, nil
}

// DeleteExpense deletes an expense record and purges its attachment files
func (s *ExpenseService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindExpense, ID: expense.ID}, expense.Attachments)

	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(expense.SiteID, websocket.EntityDeleted(websocket.EntityTypeExpense, map[string]interface{}{"id": id}))
	return nil
}
