package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Site is a construction site with its own budget plan
type Site struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	Comment     *string       `json:"comment,omitempty"`
	IsActive    bool          `json:"isActive"`
	Attachments AttachmentSet `json:"attachments"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// SiteRepository defines the interface for site data access
type SiteRepository interface {
	Create(ctx context.Context, site *Site) (*Site, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Site, error)
	List(ctx context.Context, activeOnly bool) ([]*Site, error)
	Update(ctx context.Context, site *Site) (*Site, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
