package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategorySummary contains budget usage for one category
type CategorySummary struct {
	CategoryID   uuid.UUID       `json:"categoryId"`
	Name         string          `json:"name"`
	IsActive     bool            `json:"isActive"`
	Budget       decimal.Decimal `json:"budget"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	UsagePercent decimal.Decimal `json:"usagePercent"`
	OverBudget   bool            `json:"overBudget"`
}

// SiteSummary contains the budget metrics of a site
type SiteSummary struct {
	SiteID        uuid.UUID         `json:"siteId"`
	SiteName      string            `json:"siteName"`
	TotalBudget   decimal.Decimal   `json:"totalBudget"`
	TotalExpenses decimal.Decimal   `json:"totalExpenses"`
	TotalIncome   decimal.Decimal   `json:"totalIncome"`
	Balance       decimal.Decimal   `json:"balance"`
	Remaining     decimal.Decimal   `json:"remaining"`
	UsagePercent  decimal.Decimal   `json:"usagePercent"`
	Categories    []CategorySummary `json:"categories"`
}
