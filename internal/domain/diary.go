package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DiaryEntry is a dated site log entry filed under a category
type DiaryEntry struct {
	ID          uuid.UUID     `json:"id"`
	SiteID      uuid.UUID     `json:"siteId"`
	CategoryID  uuid.UUID     `json:"categoryId"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	RecordDate  time.Time     `json:"recordDate"`
	Attachments AttachmentSet `json:"attachments"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// DiaryRepository defines the interface for diary entry data access
type DiaryRepository interface {
	Create(ctx context.Context, entry *DiaryEntry) (*DiaryEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*DiaryEntry, error)
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*DiaryEntry, error)
	Update(ctx context.Context, entry *DiaryEntry) (*DiaryEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
