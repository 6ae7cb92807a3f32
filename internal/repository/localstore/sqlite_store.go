package localstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements domain.LocalStore on a single SQLite file with a byte quota.
// Keys and values both count against the quota.
type SQLiteStore struct {
	db         *sql.DB
	quotaBytes int64
}

var _ domain.LocalStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and creates if needed) the local store at cfg.Path
func NewSQLiteStore(cfg config.LocalStoreConfig) (*SQLiteStore, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create local store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	// One writer keeps the quota check and the write atomic
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local store schema: %w", err)
	}

	return &SQLiteStore{db: db, quotaBytes: cfg.QuotaBytes}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, or domain.ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM local_entries WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get local entry: %w", err)
	}
	return value, nil
}

// Set stores value under key, failing with domain.ErrLocalStorageFull past the quota
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin local store tx: %w", err)
	}
	defer tx.Rollback()

	var used int64
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM local_entries WHERE key != ?",
		key,
	).Scan(&used)
	if err != nil {
		return fmt.Errorf("measure local store usage: %w", err)
	}

	if used+int64(len(key))+int64(len(value)) > s.quotaBytes {
		return domain.ErrLocalStorageFull
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO local_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write local entry: %w", err)
	}

	return tx.Commit()
}

// Delete removes key, returning domain.ErrNotFound if it was absent
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM local_entries WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete local entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete local entry: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Has reports whether key is present
func (s *SQLiteStore) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM local_entries WHERE key = ?)", key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check local entry: %w", err)
	}
	return exists, nil
}

// Keys lists every key starting with prefix, in key order
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM local_entries WHERE substr(key, 1, ?) = ? ORDER BY key",
		len(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("list local keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan local key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Usage returns the number of bytes currently counted against the quota
func (s *SQLiteStore) Usage(ctx context.Context) (int64, error) {
	var used int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM local_entries",
	).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("measure local store usage: %w", err)
	}
	return used, nil
}
