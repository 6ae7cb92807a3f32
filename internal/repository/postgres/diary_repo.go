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

const diaryColumns = "id, site_id, category_id, title, content, record_date, " + attachmentColumns + ", created_at, updated_at"

// DiaryRepository implements domain.DiaryRepository using PostgreSQL
type DiaryRepository struct {
	pool *pgxpool.Pool
}

// NewDiaryRepository creates a new DiaryRepository
func NewDiaryRepository(pool *pgxpool.Pool) *DiaryRepository {
	return &DiaryRepository{pool: pool}
}

// Create creates a new diary entry
func (r *DiaryRepository) Create(ctx context.Context, entry *domain.DiaryEntry) (*domain.DiaryEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	args := []any{entry.ID, entry.SiteID, entry.CategoryID, entry.Title, entry.Content, timeToPgDate(entry.RecordDate)}
	args = append(args, attachmentArgs(entry.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`INSERT INTO diary_entries (id, site_id, category_id, title, content, record_date, `+attachmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+diaryColumns, args...)
	created, err := scanDiaryEntry(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to create diary entry: %w", err)
	}
	return created, nil
}

// GetByID retrieves a diary entry by its ID
func (r *DiaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiaryEntry, error) {
	entry, err := scanDiaryEntry(r.pool.QueryRow(ctx, "SELECT "+diaryColumns+" FROM diary_entries WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDiaryEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ListBySite retrieves all diary entries of a site, newest record date first
func (r *DiaryRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*domain.DiaryEntry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+diaryColumns+" FROM diary_entries WHERE site_id = $1 ORDER BY record_date DESC, created_at DESC", siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diary entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.DiaryEntry{}
	for rows.Next() {
		entry, err := scanDiaryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Update updates a diary entry, including its attachment set
func (r *DiaryRepository) Update(ctx context.Context, entry *domain.DiaryEntry) (*domain.DiaryEntry, error) {
	args := []any{entry.ID, entry.CategoryID, entry.Title, entry.Content, timeToPgDate(entry.RecordDate)}
	args = append(args, attachmentArgs(entry.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`UPDATE diary_entries SET category_id = $2, title = $3, content = $4, record_date = $5,
		 image_ids = $6, image_urls = $7, document_ids = $8, document_urls = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+diaryColumns, args...)
	updated, err := scanDiaryEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDiaryEntryNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update diary entry: %w", err)
	}
	return updated, nil
}

// Delete deletes a diary entry
func (r *DiaryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM diary_entries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete diary entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiaryEntryNotFound
	}
	return nil
}

func scanDiaryEntry(row pgx.Row) (*domain.DiaryEntry, error) {
	var (
		entry      domain.DiaryEntry
		recordDate pgtype.Date
		arrays     attachmentArrays
	)
	dest := []any{&entry.ID, &entry.SiteID, &entry.CategoryID, &entry.Title, &entry.Content, &recordDate}
	dest = append(dest, arrays.dest()...)
	dest = append(dest, &entry.CreatedAt, &entry.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	entry.RecordDate = pgDateToTime(recordDate)
	entry.Attachments = arrays.toSet()
	return &entry, nil
}
