package service

import (
	"context"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
)

// SiteService handles site business logic
type SiteService struct {
	siteEvents
	attachmentCleanup
	siteRepo     domain.SiteRepository
	categoryRepo domain.CategoryRepository
	incomeRepo   domain.IncomeRepository
	expenseRepo  domain.ExpenseRepository
	diaryRepo    domain.DiaryRepository
}

// NewSiteService creates a new SiteService
func NewSiteService(
	siteRepo domain.SiteRepository,
	categoryRepo domain.CategoryRepository,
	incomeRepo domain.IncomeRepository,
	expenseRepo domain.ExpenseRepository,
	diaryRepo domain.DiaryRepository,
) *SiteService {
	return &SiteService{
		siteRepo:     siteRepo,
		categoryRepo: categoryRepo,
		incomeRepo:   incomeRepo,
		expenseRepo:  expenseRepo,
		diaryRepo:    diaryRepo,
	}
}

// SiteInput contains input for creating or updating a site
type SiteInput struct {
	Name        string
	Description *string
	Comment     *string
	IsActive    *bool
}

// CreateSite creates a new active site
func (s *SiteService) CreateSite(ctx context.Context, input SiteInput) (*domain.Site, error) {
	name, err := validateName(input.Name, domain.MaxSiteNameLength)
	if err != nil {
		return nil, err
	}

	site := &domain.Site{
		Name:        name,
		Description: optionalText(input.Description),
		Comment:     optionalText(input.Comment),
		IsActive:    true,
	}
	if input.IsActive != nil {
		site.IsActive = *input.IsActive
	}

	created, err := s.siteRepo.Create(ctx, site)
	if err != nil {
		return nil, err
	}
	s.publishEvent(created.ID, websocket.EntityCreated(websocket.EntityTypeSite, created))
	return created, nil
}

// GetSite retrieves a site by ID
func (s *SiteService) GetSite(ctx context.Context, id uuid.UUID) (*domain.Site, error) {
	return s.siteRepo.GetByID(ctx, id)
}

// ListSites retrieves all sites, optionally only the active ones
func (s *SiteService) ListSites(ctx context.Context, activeOnly bool) ([]*domain.Site, error) {
	return s.siteRepo.List(ctx, activeOnly)
}

// UpdateSite updates a site's details. The attachment set is left as stored.
func (s *SiteService) UpdateSite(ctx context.Context, id uuid.UUID, input SiteInput) (*domain.Site, error) {
	existing, err := s.siteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, err := validateName(input.Name, domain.MaxSiteNameLength)
	if err != nil {
		return nil, err
	}

	existing.Name = name
	existing.Description = optionalText(input.Description)
	existing.Comment = optionalText(input.Comment)
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}

	updated, err := s.siteRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.publishEvent(updated.ID, websocket.EntityUpdated(websocket.EntityTypeSite, updated))
	return updated, nil
}

// DeleteSite deletes a site and everything filed under it. Attachment files of the site and
// its records are purged best effort first.
func (s *SiteService) DeleteSite(ctx context.Context, id uuid.UUID) error {
	site, err := s.siteRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.purgeSiteAttachments(ctx, site)

	if err := s.siteRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(id, websocket.EntityDeleted(websocket.EntityTypeSite, map[string]interface{}{"id": id}))
	return nil
}

func (s *SiteService) purgeSiteAttachments(ctx context.Context, site *domain.Site) {
	if s.attachments == nil {
		return
	}

	s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindSite, ID: site.ID}, site.Attachments)

	if categories, err := s.categoryRepo.ListBySite(ctx, site.ID); err == nil {
		for _, c := range categories {
			s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindCategory, ID: c.ID}, c.Attachments)
		}
	}
	if incomes, err := s.incomeRepo.ListBySite(ctx, site.ID); err == nil {
		for _, i := range incomes {
			s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindIncome, ID: i.ID}, i.Attachments)
		}
	}
	if expenses, err := s.expenseRepo.ListBySite(ctx, site.ID); err == nil {
		for _, e := range expenses {
			s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindExpense, ID: e.ID}, e.Attachments)
		}
	}
	if entries, err := s.diaryRepo.ListBySite(ctx, site.ID); err == nil {
		for _, d := range entries {
			s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindDiary, ID: d.ID}, d.Attachments)
		}
	}
}
