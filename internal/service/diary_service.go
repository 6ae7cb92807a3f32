package service

import (
	"context"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
)

// DiaryService handles site diary business logic
type DiaryService struct {
	siteEvents
	attachmentCleanup
	diaryRepo    domain.DiaryRepository
	categoryRepo domain.CategoryRepository
	siteRepo     domain.SiteRepository
}

// NewDiaryService creates a new DiaryService
func NewDiaryService(
	diaryRepo domain.DiaryRepository,
	categoryRepo domain.CategoryRepository,
	siteRepo domain.SiteRepository,
) *DiaryService {
	return &DiaryService{
		diaryRepo:    diaryRepo,
		categoryRepo: categoryRepo,
		siteRepo:     siteRepo,
	}
}

// DiaryInput contains input for creating or updating a diary entry
type DiaryInput struct {
	CategoryID uuid.UUID
	Title      string
	Content    string
	RecordDate time.Time
}

func validateDiaryInput(input DiaryInput) (string, string, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return "", "", err
	}
	if err := validateDate(input.RecordDate); err != nil {
		return "", "", err
	}
	content, err := validateContent(input.Content)
	if err != nil {
		return "", "", err
	}
	return title, content, nil
}

// CreateEntry adds a diary entry to a site
func (s *DiaryService) CreateEntry(ctx context.Context, siteID uuid.UUID, input DiaryInput) (*domain.DiaryEntry, error) {
	title, content, err := validateDiaryInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	if _, err := requireSiteCategory(ctx, s.categoryRepo, siteID, input.CategoryID); err != nil {
		return nil, err
	}

	created, err := s.diaryRepo.Create(ctx, &domain.DiaryEntry{
		SiteID:     siteID,
		CategoryID: input.CategoryID,
		Title:      title,
		Content:    content,
		RecordDate: input.RecordDate,
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(siteID, websocket.EntityCreated(websocket.EntityTypeDiary, created))
	return created, nil
}

// GetEntry retrieves a diary entry by ID
func (s *DiaryService) GetEntry(ctx context.Context, id uuid.UUID) (*domain.DiaryEntry, error) {
	return s.diaryRepo.GetByID(ctx, id)
}

// ListEntries retrieves all diary entries of a site
func (s *DiaryService) ListEntries(ctx context.Context, siteID uuid.UUID) ([]*domain.DiaryEntry, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	return s.diaryRepo.ListBySite(ctx, siteID)
}

// UpdateEntry updates a diary entry
func (s *DiaryService) UpdateEntry(ctx context.Context, id uuid.UUID, input DiaryInput) (*domain.DiaryEntry, error) {
	existing, err := s.diaryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	title, content, err := validateDiaryInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := requireSiteCategory(ctx, s.categoryRepo, existing.SiteID, input.CategoryID); err != nil {
		return nil, err
	}

	existing.CategoryID = input.CategoryID
	existing.Title = title
	existing.Content = content
	existing.RecordDate = input.RecordDate

	updated, err := s.diaryRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.publishEvent(updated.SiteID, websocket.EntityUpdated(websocket.EntityTypeDiary, updated))
	return updated, nil
}

// DeleteEntry deletes a diary entry and purges its attachment files
func (s *DiaryService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	entry, err := s.diaryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.purge(ctx, domain.OwnerRef{Kind: domain.OwnerKindDiary, ID: entry.ID}, entry.Attachments)

	if err := s.diaryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(entry.SiteID, websocket.EntityDeleted(websocket.EntityTypeDiary, map[string]interface{}{"id": id}))
	return nil
}
