package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStorage implements domain.ObjectStorage using MinIO
type MinIOStorage struct {
	client     *minio.Client
	bucketName string
	urlExpiry  time.Duration
}

var _ domain.ObjectStorage = (*MinIOStorage)(nil)

// NewMinIOStorage creates a new MinIO object storage
func NewMinIOStorage(ctx context.Context, cfg config.StorageConfig) (*MinIOStorage, error) {
	endpoint, useSSL := splitEndpoint(cfg.Endpoint, cfg.UseSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       useSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinIOStorage{
		client:     client,
		bucketName: cfg.Bucket,
		urlExpiry:  cfg.URLExpiry,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// splitEndpoint accepts "host:port" or a full URL and returns the host plus TLS flag
func splitEndpoint(endpoint string, defaultSSL bool) (string, bool) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, defaultSSL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, defaultSSL
	}
	return u.Host, u.Scheme == "https"
}

// ensureBucket creates the bucket if it doesn't exist. The bucket stays private.
func (r *MinIOStorage) ensureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = r.client.MakeBucket(ctx, r.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Upload uploads data to MinIO storage and returns a presigned download URL
func (r *MinIOStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType: contentType,
	}

	// If size is unknown, read all data into memory
	if size < 0 {
		buf, err := io.ReadAll(data)
		if err != nil {
			return "", fmt.Errorf("failed to read data: %w", err)
		}
		size = int64(len(buf))
		data = bytes.NewReader(buf)
	}

	_, err := r.client.PutObject(ctx, r.bucketName, objectPath, data, size, opts)
	if err != nil {
		return "", classifyMinIOError(err)
	}

	u, err := r.client.PresignedGetObject(ctx, r.bucketName, objectPath, r.urlExpiry, nil)
	if err != nil {
		return "", classifyMinIOError(err)
	}
	return u.String(), nil
}

// Delete removes an object from MinIO storage
func (r *MinIOStorage) Delete(ctx context.Context, objectPath string) error {
	err := r.client.RemoveObject(ctx, r.bucketName, objectPath, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists stats the object
func (r *MinIOStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := r.client.StatObject(ctx, r.bucketName, objectPath, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}

// List enumerates all objects under prefix recursively
func (r *MinIOStorage) List(ctx context.Context, prefix string) ([]domain.StoredObject, error) {
	var objects []domain.StoredObject
	for obj := range r.client.ListObjects(ctx, r.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, obj.Err)
		}
		u, err := r.client.PresignedGetObject(ctx, r.bucketName, obj.Key, r.urlExpiry, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to presign %q: %w", obj.Key, err)
		}
		objects = append(objects, domain.StoredObject{
			Path:         obj.Key,
			URL:          u.String(),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return objects, nil
}

// ResolveURL returns a fresh presigned URL for an existing object
func (r *MinIOStorage) ResolveURL(ctx context.Context, objectPath string) (string, error) {
	exists, err := r.Exists(ctx, objectPath)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.ErrObjectNotFound
	}
	u, err := r.client.PresignedGetObject(ctx, r.bucketName, objectPath, r.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

// ObjectPathFromURL extracts the object path from a presigned URL
// URL format: http(s)://endpoint/bucket/path?X-Amz-...
func (r *MinIOStorage) ObjectPathFromURL(rawURL string) (string, bool) {
	return util.ExtractObjectPath(rawURL, r.bucketName, true)
}
