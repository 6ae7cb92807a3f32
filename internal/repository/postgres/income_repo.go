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

const incomeColumns = "id, site_id, amount, content, date, category, " + attachmentColumns + ", created_at, updated_at"

// IncomeRepository implements domain.IncomeRepository using PostgreSQL
type IncomeRepository struct {
	pool *pgxpool.Pool
}

// NewIncomeRepository creates a new IncomeRepository
func NewIncomeRepository(pool *pgxpool.Pool) *IncomeRepository {
	return &IncomeRepository{pool: pool}
}

// Create creates a new income record
func (r *IncomeRepository) Create(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	if income.ID == uuid.Nil {
		income.ID = uuid.New()
	}
	amount, err := decimalToPgNumeric(income.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	args := []any{income.ID, income.SiteID, amount, income.Content, timeToPgDate(income.Date), income.Category}
	args = append(args, attachmentArgs(income.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`INSERT INTO incomes (id, site_id, amount, content, date, category, `+attachmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+incomeColumns, args...)
	created, err := scanIncome(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to create income: %w", err)
	}
	return created, nil
}

// GetByID retrieves an income record by its ID
func (r *IncomeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Income, error) {
	income, err := scanIncome(r.pool.QueryRow(ctx, "SELECT "+incomeColumns+" FROM incomes WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, err
	}
	return income, nil
}

// ListBySite retrieves all income records of a site, newest date first
func (r *IncomeRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*domain.Income, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+incomeColumns+" FROM incomes WHERE site_id = $1 ORDER BY date DESC, created_at DESC", siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}
	defer rows.Close()

	incomes := []*domain.Income{}
	for rows.Next() {
		income, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		incomes = append(incomes, income)
	}
	return incomes, rows.Err()
}

// Update updates an income record, including its attachment set
func (r *IncomeRepository) Update(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	amount, err := decimalToPgNumeric(income.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	args := []any{income.ID, amount, income.Content, timeToPgDate(income.Date)}
	args = append(args, attachmentArgs(income.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`UPDATE incomes SET amount = $2, content = $3, date = $4,
		 image_ids = $5, image_urls = $6, document_ids = $7, document_urls = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+incomeColumns, args...)
	updated, err := scanIncome(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, fmt.Errorf("failed to update income: %w", err)
	}
	return updated, nil
}

// Delete deletes an income record
func (r *IncomeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM incomes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete income: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomeNotFound
	}
	return nil
}

func scanIncome(row pgx.Row) (*domain.Income, error) {
	var (
		income domain.Income
		amount pgtype.Numeric
		date   pgtype.Date
		arrays attachmentArrays
	)
	dest := []any{&income.ID, &income.SiteID, &amount, &income.Content, &date, &income.Category}
	dest = append(dest, arrays.dest()...)
	dest = append(dest, &income.CreatedAt, &income.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	income.Amount = pgNumericToDecimal(amount)
	income.Date = pgDateToTime(date)
	income.Attachments = arrays.toSet()
	return &income, nil
}
