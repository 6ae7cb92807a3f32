package service

import (
	"context"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BudgetService computes budget usage summaries for sites
type BudgetService struct {
	siteRepo     domain.SiteRepository
	categoryRepo domain.CategoryRepository
	incomeRepo   domain.IncomeRepository
	expenseRepo  domain.ExpenseRepository
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	siteRepo domain.SiteRepository,
	categoryRepo domain.CategoryRepository,
	incomeRepo domain.IncomeRepository,
	expenseRepo domain.ExpenseRepository,
) *BudgetService {
	return &BudgetService{
		siteRepo:     siteRepo,
		categoryRepo: categoryRepo,
		incomeRepo:   incomeRepo,
		expenseRepo:  expenseRepo,
	}
}

// GetSiteSummary returns per-category budget usage and the site totals
func (s *BudgetService) GetSiteSummary(ctx context.Context, siteID uuid.UUID) (*domain.SiteSummary, error) {
	site, err := s.siteRepo.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	incomes, err := s.incomeRepo.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	// 1. Sum expenses per category
	spentByCategory := make(map[uuid.UUID]decimal.Decimal)
	totalExpenses := decimal.Zero
	for _, e := range expenses {
		spentByCategory[e.CategoryID] = spentByCategory[e.CategoryID].Add(e.Amount)
		totalExpenses = totalExpenses.Add(e.Amount)
	}

	// 2. Sum income
	totalIncome := decimal.Zero
	for _, i := range incomes {
		totalIncome = totalIncome.Add(i.Amount)
	}

	// 3. Build category lines
	totalBudget := decimal.Zero
	lines := make([]domain.CategorySummary, 0, len(categories))
	for _, c := range categories {
		spent := spentByCategory[c.ID]
		totalBudget = totalBudget.Add(c.BudgetAmount)
		lines = append(lines, domain.CategorySummary{
			CategoryID:   c.ID,
			Name:         c.Name,
			IsActive:     c.IsActive,
			Budget:       c.BudgetAmount,
			Spent:        spent,
			Remaining:    c.BudgetAmount.Sub(spent),
			UsagePercent: usagePercent(spent, c.BudgetAmount),
			OverBudget:   spent.GreaterThan(c.BudgetAmount),
		})
	}

	return &domain.SiteSummary{
		SiteID:        site.ID,
		SiteName:      site.Name,
		TotalBudget:   totalBudget,
		TotalExpenses: totalExpenses,
		TotalIncome:   totalIncome,
		Balance:       totalIncome.Sub(totalExpenses),
		Remaining:     totalBudget.Sub(totalExpenses),
		UsagePercent:  usagePercent(totalExpenses, totalBudget),
		Categories:    lines,
	}, nil
}

// usagePercent returns spent/budget as a percentage rounded to 2 places. A zero budget yields 0.
func usagePercent(spent, budget decimal.Decimal) decimal.Decimal {
	if budget.IsZero() {
		return decimal.Zero
	}
	return spent.Mul(hundred).Div(budget).Round(2)
}
