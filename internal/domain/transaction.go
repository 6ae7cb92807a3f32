package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomeCategorySales is the fixed category label of every income record
const IncomeCategorySales = "sales"

// Income is money received for a site
type Income struct {
	ID          uuid.UUID       `json:"id"`
	SiteID      uuid.UUID       `json:"siteId"`
	Amount      decimal.Decimal `json:"amount"`
	Content     string          `json:"content"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
	Attachments AttachmentSet   `json:"attachments"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Expense is money spent on a site against one of its categories
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	SiteID      uuid.UUID       `json:"siteId"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Content     string          `json:"content"`
	Date        time.Time       `json:"date"`
	Attachments AttachmentSet   `json:"attachments"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IncomeRepository defines the interface for income data access
type IncomeRepository interface {
	Create(ctx context.Context, income *Income) (*Income, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Income, error)
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*Income, error)
	Update(ctx context.Context, income *Income) (*Income, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExpenseRepository defines the interface for expense data access
type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) (*Expense, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*Expense, error)
	Update(ctx context.Context, expense *Expense) (*Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
