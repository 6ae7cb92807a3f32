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

const siteColumns = "id, name, description, comment, is_active, " + attachmentColumns + ", created_at, updated_at"

// SiteRepository implements domain.SiteRepository using PostgreSQL
type SiteRepository struct {
	pool *pgxpool.Pool
}

// NewSiteRepository creates a new SiteRepository
func NewSiteRepository(pool *pgxpool.Pool) *SiteRepository {
	return &SiteRepository{pool: pool}
}

// Create creates a new site
func (r *SiteRepository) Create(ctx context.Context, site *domain.Site) (*domain.Site, error) {
	if site.ID == uuid.Nil {
		site.ID = uuid.New()
	}
	args := []any{site.ID, site.Name, stringPtrToPgText(site.Description), stringPtrToPgText(site.Comment), site.IsActive}
	args = append(args, attachmentArgs(site.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`INSERT INTO sites (id, name, description, comment, is_active, `+attachmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+siteColumns, args...)
	created, err := scanSite(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}
	return created, nil
}

// GetByID retrieves a site by its ID
func (r *SiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Site, error) {
	site, err := scanSite(r.pool.QueryRow(ctx, "SELECT "+siteColumns+" FROM sites WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, err
	}
	return site, nil
}

// List retrieves all sites, newest first
func (r *SiteRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Site, error) {
	query := "SELECT " + siteColumns + " FROM sites"
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	sites := []*domain.Site{}
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// Update updates a site, including its attachment set
func (r *SiteRepository) Update(ctx context.Context, site *domain.Site) (*domain.Site, error) {
	args := []any{site.ID, site.Name, stringPtrToPgText(site.Description), stringPtrToPgText(site.Comment), site.IsActive}
	args = append(args, attachmentArgs(site.Attachments)...)

	row := r.pool.QueryRow(ctx,
		`UPDATE sites SET name = $2, description = $3, comment = $4, is_active = $5,
		 image_ids = $6, image_urls = $7, document_ids = $8, document_urls = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+siteColumns, args...)
	updated, err := scanSite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to update site: %w", err)
	}
	return updated, nil
}

// Delete deletes a site and, through cascading keys, everything filed under it
func (r *SiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM sites WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSiteNotFound
	}
	return nil
}

func scanSite(row pgx.Row) (*domain.Site, error) {
	var (
		site        domain.Site
		description pgtype.Text
		comment     pgtype.Text
		arrays      attachmentArrays
	)
	dest := []any{&site.ID, &site.Name, &description, &comment, &site.IsActive}
	dest = append(dest, arrays.dest()...)
	dest = append(dest, &site.CreatedAt, &site.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	site.Description = pgTextToStringPtr(description)
	site.Comment = pgTextToStringPtr(comment)
	site.Attachments = arrays.toSet()
	return &site, nil
}
