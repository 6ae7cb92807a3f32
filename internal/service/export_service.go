package service

import (
	"context"
	"fmt"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Export sheet names
const (
	SummarySheet  = "Summary"
	ExpensesSheet = "Expenses"
	IncomesSheet  = "Incomes"
)

// XLSXContentType is the MIME type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportService renders a site's books as an xlsx workbook
type ExportService struct {
	budgetService *BudgetService
	categoryRepo  domain.CategoryRepository
	incomeRepo    domain.IncomeRepository
	expenseRepo   domain.ExpenseRepository
}

// NewExportService creates a new ExportService
func NewExportService(
	budgetService *BudgetService,
	categoryRepo domain.CategoryRepository,
	incomeRepo domain.IncomeRepository,
	expenseRepo domain.ExpenseRepository,
) *ExportService {
	return &ExportService{
		budgetService: budgetService,
		categoryRepo:  categoryRepo,
		incomeRepo:    incomeRepo,
		expenseRepo:   expenseRepo,
	}
}

// ExportSite builds a workbook with the Summary, Expenses and Incomes sheets
func (s *ExportService) ExportSite(ctx context.Context, siteID uuid.UUID) ([]byte, error) {
	summary, err := s.budgetService.GetSiteSummary(ctx, siteID)
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

	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if _, err := f.NewSheet(ExpensesSheet); err != nil {
		return nil, fmt.Errorf("failed to create expenses sheet: %w", err)
	}
	if _, err := f.NewSheet(IncomesSheet); err != nil {
		return nil, fmt.Errorf("failed to create incomes sheet: %w", err)
	}

	// Summary
	rows := [][]interface{}{
		{"Site", summary.SiteName},
		{},
		{"Category", "Budget", "Spent", "Remaining", "Usage %"},
	}
	for _, c := range summary.Categories {
		rows = append(rows, []interface{}{
			c.Name,
			c.Budget.InexactFloat64(),
			c.Spent.InexactFloat64(),
			c.Remaining.InexactFloat64(),
			c.UsagePercent.InexactFloat64(),
		})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Total budget", summary.TotalBudget.InexactFloat64()},
		[]interface{}{"Total expenses", summary.TotalExpenses.InexactFloat64()},
		[]interface{}{"Total income", summary.TotalIncome.InexactFloat64()},
		[]interface{}{"Balance", summary.Balance.InexactFloat64()},
	)
	if err := writeRows(f, SummarySheet, rows); err != nil {
		return nil, err
	}

	// Expenses
	rows = [][]interface{}{{"Date", "Category", "Content", "Amount"}}
	for _, e := range expenses {
		rows = append(rows, []interface{}{
			e.Date.Format("2006-01-02"),
			categoryNames[e.CategoryID],
			e.Content,
			e.Amount.InexactFloat64(),
		})
	}
	if err := writeRows(f, ExpensesSheet, rows); err != nil {
		return nil, err
	}

	// Incomes
	rows = [][]interface{}{{"Date", "Category", "Content", "Amount"}}
	for _, i := range incomes {
		rows = append(rows, []interface{}{
			i.Date.Format("2006-01-02"),
			i.Category,
			i.Content,
			i.Amount.InexactFloat64(),
		})
	}
	if err := writeRows(f, IncomesSheet, rows); err != nil {
		return nil, err
	}

	f.SetColWidth(SummarySheet, "A", "A", 24)
	f.SetColWidth(SummarySheet, "B", "E", 14)
	for _, sheet := range []string{ExpensesSheet, IncomesSheet} {
		f.SetColWidth(sheet, "A", "B", 14)
		f.SetColWidth(sheet, "C", "C", 40)
		f.SetColWidth(sheet, "D", "D", 14)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
