package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category partitions a site's spending plan
type Category struct {
	ID           uuid.UUID       `json:"id"`
	SiteID       uuid.UUID       `json:"siteId"`
	Name         string          `json:"name"`
	BudgetAmount decimal.Decimal `json:"budgetAmount"`
	IsActive     bool            `json:"isActive"`
	Attachments  AttachmentSet   `json:"attachments"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*Category, error)
	Update(ctx context.Context, category *Category) (*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
