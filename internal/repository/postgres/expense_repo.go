package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const expenseColumns = "id, site_id, category_id, amount, content, date, " + attachmentColumns + ", created_at, updated_at"

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// Create creates a new expense record
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	args := []any{expense.ID, expense.SiteID, expense.CategoryID, amount, expense.Content, timeToPgDate(expense.Date)}
	args = append(args, attachmentArgs(expense.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`INSERT INTO expenses (id, site_id, category_id, amount, content, date, `+attachmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+expenseColumns, args...)
	created, err := scanExpense(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return created, nil
}

// GetByID retrieves an expense record by its ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	expense, err := scanExpense(r.pool.QueryRow(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

// ListBySite retrieves all expense records of a site, newest date first
func (r *ExpenseRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*domain.Expense, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE site_id = $1 ORDER BY date DESC, created_at DESC", siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*domain.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// Update updates an expense record, including its attachment set
func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	args := []any{expense.ID, expense.CategoryID, amount, expense.Content, timeToPgDate(expense.Date)}
	args = append(args, attachmentArgs(expense.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`UPDATE expenses SET category_id = $2, amount = $3, content = $4, date = $5,
		 image_ids = $6, image_urls = $7, document_ids = $8, document_urls = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+expenseColumns, args...)
	updated, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return updated, nil
}

// Delete deletes an expense record
func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM expenses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		expense domain.Expense
		amount  pgtype.Numeric
		date    pgtype.Date
		arrays  attachmentArrays
	)
	dest := []any{&expense.ID, &expense.SiteID, &expense.CategoryID, &amount, &expense.Content, &date}
	dest = append(dest, arrays.dest()...)
	dest = append(dest, &expense.CreatedAt, &expense.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	expense.Amount = pgNumericToDecimal(amount)
	expense.Date = pgDateToTime(date)
	expense.Attachments = arrays.toSet()
	return &expense, nil
}
