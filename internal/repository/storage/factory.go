package storage

import (
	"context"
	"fmt"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
)

// New builds the object storage selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig) (domain.ObjectStorage, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		return NewS3Storage(ctx, cfg)
	case config.StorageDriverMinIO:
		return NewMinIOStorage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
