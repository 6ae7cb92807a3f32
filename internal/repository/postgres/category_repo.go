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

const categoryColumns = "id, site_id, name, budget_amount, is_active, " + attachmentColumns + ", created_at, updated_at"

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create creates a new category under an existing site
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	budget, err := decimalToPgNumeric(category.BudgetAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid budget amount: %w", err)
	}
	args := []any{category.ID, category.SiteID, category.Name, budget, category.IsActive}
	args = append(args, attachmentArgs(category.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (id, site_id, name, budget_amount, is_active, `+attachmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+categoryColumns, args...)
	created, err := scanCategory(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return created, nil
}

// GetByID retrieves a category by its ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := scanCategory(r.pool.QueryRow(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// ListBySite retrieves all categories of a site in creation order
func (r *CategoryRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE site_id = $1 ORDER BY created_at, name", siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Update updates a category, including its attachment set
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	budget, err := decimalToPgNumeric(category.BudgetAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid budget amount: %w", err)
	}
	args := []any{category.ID, category.Name, budget, category.IsActive}
	args = append(args, attachmentArgs(category.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2, budget_amount = $3, is_active = $4,
		 image_ids = $5, image_urls = $6, document_ids = $7, document_urls = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+categoryColumns, args...)
	updated, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return updated, nil
}

// Delete deletes a category together with its expenses and diary entries
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		category domain.Category
		budget   pgtype.Numeric
		arrays   attachmentArrays
	)
	dest := []any{&category.ID, &category.SiteID, &category.Name, &budget, &category.IsActive}
	dest = append(dest, arrays.dest()...)
	dest = append(dest, &category.CreatedAt, &category.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	category.BudgetAmount = pgNumericToDecimal(budget)
	category.Attachments = arrays.toSet()
	return &category, nil
}
