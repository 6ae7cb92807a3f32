package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers
const (
	StorageDriverS3    = "s3"
	StorageDriverMinIO = "minio"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Auth0 (optional, auth is disabled when domain is empty)
	Auth0Domain   string `envconfig:"AUTH0_DOMAIN"`
	Auth0Audience string `envconfig:"AUTH0_AUDIENCE"`

	// Server
	Port        string   `envconfig:"PORT" default:"8080"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	Env         string   `envconfig:"ENV" default:"development"`

	Storage    StorageConfig
	LocalStore LocalStoreConfig
	Attachment AttachmentConfig
	Integrity  IntegrityConfig
	RateLimit  RateLimitConfig
}

// StorageConfig holds object storage configuration. Driver selects S3 or MinIO.
type StorageConfig struct {
	Driver          string        `envconfig:"STORAGE_DRIVER" default:"s3"`
	Region          string        `envconfig:"S3_REGION" default:"us-east-1"`
	Bucket          string        `envconfig:"S3_BUCKET" default:"sitebook-attachments"`
	AccessKeyID     string        `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string        `envconfig:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string        `envconfig:"S3_ENDPOINT"` // Optional: for MinIO/LocalStack local dev
	UseSSL          bool          `envconfig:"S3_USE_SSL" default:"true"`
	URLExpiry       time.Duration `envconfig:"STORAGE_URL_EXPIRY" default:"168h"`
}

// LocalStoreConfig holds the device-local store configuration
type LocalStoreConfig struct {
	Path       string `envconfig:"LOCAL_STORE_PATH" default:"data/local.db"`
	QuotaBytes int64  `envconfig:"LOCAL_STORE_QUOTA_BYTES" default:"5242880"`
}

// AttachmentConfig holds attachment upload limits and pacing
type AttachmentConfig struct {
	UploadInterval  time.Duration `envconfig:"ATTACHMENT_UPLOAD_INTERVAL" default:"300ms"`
	MaxImageSize    int64         `envconfig:"ATTACHMENT_MAX_IMAGE_SIZE" default:"20971520"`
	MaxDocumentSize int64         `envconfig:"ATTACHMENT_MAX_DOCUMENT_SIZE" default:"10485760"`
}

// IntegrityConfig holds storage integrity checker settings
type IntegrityConfig struct {
	ProbeTimeout   time.Duration `envconfig:"INTEGRITY_PROBE_TIMEOUT" default:"3s"`
	RepairInterval time.Duration `envconfig:"INTEGRITY_REPAIR_INTERVAL" default:"200ms"`
	HistoryLimit   int           `envconfig:"INTEGRITY_HISTORY_LIMIT" default:"20"`
	ScanInterval   time.Duration `envconfig:"INTEGRITY_SCAN_INTERVAL" default:"0"`
}

// RateLimitConfig holds per-client HTTP rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"300"`
	Burst             int `envconfig:"RATE_LIMIT_BURST" default:"30"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AuthEnabled reports whether JWT authentication is configured
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != ""
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain != "" && c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required when AUTH0_DOMAIN is set")
	}
	switch c.Storage.Driver {
	case StorageDriverS3:
	case StorageDriverMinIO:
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required for the minio storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if c.LocalStore.QuotaBytes <= 0 {
		return fmt.Errorf("LOCAL_STORE_QUOTA_BYTES must be positive")
	}
	if c.Integrity.HistoryLimit <= 0 {
		return fmt.Errorf("INTEGRITY_HISTORY_LIMIT must be positive")
	}
	return nil
}
