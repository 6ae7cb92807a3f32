package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ownerTables maps each owner kind to its table
var ownerTables = map[domain.OwnerKind]string{
	domain.OwnerKindSite:     "sites",
	domain.OwnerKindCategory: "categories",
	domain.OwnerKindIncome:   "incomes",
	domain.OwnerKindExpense:  "expenses",
	domain.OwnerKindDiary:    "diary_entries",
}

// attachmentArrays holds the four persisted attachment columns of one row
type attachmentArrays struct {
	imageIDs     []string
	imageURLs    []string
	documentIDs  []string
	documentURLs []string
}

func (a *attachmentArrays) dest() []any {
	return []any{&a.imageIDs, &a.imageURLs, &a.documentIDs, &a.documentURLs}
}

func (a attachmentArrays) toSet() domain.AttachmentSet {
	return domain.NewAttachmentSet(a.imageIDs, a.imageURLs, a.documentIDs, a.documentURLs)
}

// attachmentArgs flattens a set into the four column values, in column order
func attachmentArgs(set domain.AttachmentSet) []any {
	return []any{
		set.IDs(domain.AttachmentKindImage),
		set.URLs(domain.AttachmentKindImage),
		set.IDs(domain.AttachmentKindDocument),
		set.URLs(domain.AttachmentKindDocument),
	}
}

// AttachmentOwnerRepository implements domain.AttachmentOwnerRepository across all owner tables
type AttachmentOwnerRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentOwnerRepository creates a new AttachmentOwnerRepository
func NewAttachmentOwnerRepository(pool *pgxpool.Pool) *AttachmentOwnerRepository {
	return &AttachmentOwnerRepository{pool: pool}
}

func tableFor(kind domain.OwnerKind) (string, error) {
	table, ok := ownerTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown owner kind %q", domain.ErrInvalidInput, kind)
	}
	return table, nil
}

// GetAttachments reads the attachment set of one owner record
func (r *AttachmentOwnerRepository) GetAttachments(ctx context.Context, owner domain.OwnerRef) (domain.AttachmentSet, error) {
	table, err := tableFor(owner.Kind)
	if err != nil {
		return domain.AttachmentSet{}, err
	}

	var arrays attachmentArrays
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", attachmentColumns, table)
	if err := r.pool.QueryRow(ctx, query, owner.ID).Scan(arrays.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AttachmentSet{}, domain.ErrNotFound
		}
		return domain.AttachmentSet{}, fmt.Errorf("failed to read attachments of %s: %w", owner, err)
	}
	return arrays.toSet(), nil
}

// SetAttachments replaces the attachment set of one owner record
func (r *AttachmentOwnerRepository) SetAttachments(ctx context.Context, owner domain.OwnerRef, set domain.AttachmentSet) error {
	table, err := tableFor(owner.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE %s SET image_ids = $2, image_urls = $3, document_ids = $4, document_urls = $5, updated_at = NOW()
		 WHERE id = $1`, table)
	args := append([]any{owner.ID}, attachmentArgs(set)...)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to write attachments of %s: %w", owner, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListReferences returns every attachment referenced by any owner record
func (r *AttachmentOwnerRepository) ListReferences(ctx context.Context) ([]domain.AttachmentReference, error) {
	var refs []domain.AttachmentReference
	for _, kind := range domain.OwnerKinds {
		table := ownerTables[kind]
		query := fmt.Sprintf(
			`SELECT id, %s FROM %s
			 WHERE cardinality(image_ids) + cardinality(image_urls) + cardinality(document_ids) + cardinality(document_urls) > 0
			 ORDER BY created_at, id`, attachmentColumns, table)

		rows, err := r.pool.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list references in %s: %w", table, err)
		}

		for rows.Next() {
			var id uuid.UUID
			var arrays attachmentArrays
			if err := rows.Scan(append([]any{&id}, arrays.dest()...)...); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan references in %s: %w", table, err)
			}
			owner := domain.OwnerRef{Kind: kind, ID: id}
			for _, att := range arrays.toSet().All() {
				refs = append(refs, domain.AttachmentReference{Owner: owner, Attachment: att})
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to list references in %s: %w", table, err)
		}
	}
	return refs, nil
}
