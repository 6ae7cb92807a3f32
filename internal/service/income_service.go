package service

import (
	"context"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomeService handles income business logic
type IncomeService struct {
	siteEvents
	attachmentCleanup
	incomeRepo domain.IncomeRepository
	siteRepo   domain.SiteRepository
}

// NewIncomeService creates a new IncomeService
func NewIncomeService(incomeRepo domain.IncomeRepository, siteRepo domain.SiteRepository) *IncomeService {
	return &IncomeService{incomeRepo: incomeRepo, siteRepo: siteRepo}
}

// IncomeInput contains input for creating or updating an income record
type IncomeInput struct {
	Amount  decimal.Decimal
	Content string
	Date    time.Time
}

func validateIncomeInput(input IncomeInput) (string, error) {
	if err := validateAmount(input.Amount); err != nil {
		return "", err
	}
	if err := validateDate(input.Date); err != nil {
		return "", err
	}
	return validateContent(input.Content)
}

// CreateIncome records money received for a site
func (s *IncomeService) CreateIncome(ctx context.Context, siteID uuid.UUID, input IncomeInput) (*domain.Income, error) {
	content, err := validateIncomeInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	created, err := s.incomeRepo.Create(ctx, &domain.Income{
		SiteID:   siteID,
		Amount:   input.Amount,
		Content:  content,
		Date:     input.Date,
		Category: domain.IncomeCategorySales,
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(siteID, websocket.EntityCreated(websocket.EntityTypeIncome, created))
	return created, nil
}

// GetIncome retrieves an income record by ID
func (s *IncomeService) GetIncome(ctx context.Context, id uuid.UUID) (*domain.Income, error) {
	return s.incomeRepo.GetByID(ctx, id)
}

// ListIncomes retrieves all income records of a site
func (s *IncomeService) ListIncomes(ctx context.Context, siteID uuid.UUID) ([]*domain.Income, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	return s.incomeRepo.ListBySite(ctx, siteID)
}

// UpdateIncome updates an income record
func (s *IncomeService) UpdateIncome(ctx context.Context, id uuid.UUID, input IncomeInput) (*domain.Income, error) {
	existing, err := s.incomeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := validateIncomeInput(input)
	if err != nil {
		return nil, err
	}

	existing.Amount = input.Amount
	existing.Content = content
	existing.Date = input.Date

	updated, err := s.incomeRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.publishEvent(updated.SiteID, websocket.EntityUpdated(websocket.EntityTypeIncome, updated))
	return updated, nil
}

// DeleteIncome deletes an income record and purges its attachment files
func (s *IncomeService) DeleteIncome(ctx context.Context, id uuid.UUID) error {
	income, err := s.incomeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindIncome, ID: income.ID}, income.Attachments)

	if err := s.incomeRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(income.SiteID, websocket.EntityDeleted(websocket.EntityTypeIncome, map[string]interface{}{"id": id}))
	return nil
}
