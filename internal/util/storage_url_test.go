package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStorageURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "keeps only token param",
			input:    "https://storage.example.com/bucket/sites/1/images/1_a.jpg?alt=media&token=abc&X-Amz-Date=20240101",
			expected: "https://storage.example.com/bucket/sites/1/images/1_a.jpg?token=abc",
		},
		{
			name:     "drops all volatile params without token",
			input:    "https://storage.example.com/bucket/a.jpg?X-Amz-Signature=deadbeef&X-Amz-Expires=600",
			expected: "https://storage.example.com/bucket/a.jpg",
		},
		{
			name:     "lowercases scheme and host",
			input:    "HTTPS://Storage.Example.com/bucket/a.jpg",
			expected: "https://storage.example.com/bucket/a.jpg",
		},
		{
			name:     "keeps escaped firebase paths",
			input:    "https://firebasestorage.googleapis.com/v0/b/bucket/o/sites%2F1%2Fimages%2Fa.jpg?alt=media&token=t1",
			expected: "https://firebasestorage.googleapis.com/v0/b/bucket/o/sites%2F1%2Fimages%2Fa.jpg?token=t1",
		},
		{
			name:     "returns non-url input unchanged",
			input:    "not a url",
			expected: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeStorageURL(tt.input))
		})
	}
}

func TestNormalizeStorageURL_TokenRotation(t *testing.T) {
	a := "https://storage.example.com/bucket/a.jpg?token=abc&X-Amz-Date=1"
	b := "https://storage.example.com/bucket/a.jpg?X-Amz-Date=2&token=abc"
	assert.Equal(t, NormalizeStorageURL(a), NormalizeStorageURL(b))

	c := "https://storage.example.com/bucket/a.jpg?token=rotated"
	assert.NotEqual(t, NormalizeStorageURL(a), NormalizeStorageURL(c))
}

func TestExtractObjectPath(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		bucket   string
		style    bool
		expected string
		ok       bool
	}{
		{"path style", "http://localhost:9000/bucket/sites/1/images/1_a.jpg?X-Amz-Signature=x", "bucket", true, "sites/1/images/1_a.jpg", true},
		{"virtual hosted", "https://bucket.s3.us-east-1.amazonaws.com/expenses/2/documents/3_b.pdf?X-Amz-Expires=60", "bucket", false, "expenses/2/documents/3_b.pdf", true},
		{"firebase style", "https://firebasestorage.googleapis.com/v0/b/bucket/o/sites%2F1%2Fimages%2Fa.jpg?alt=media&token=t", "bucket", true, "sites/1/images/a.jpg", true},
		{"firebase other bucket", "https://firebasestorage.googleapis.com/v0/b/other/o/a.jpg", "bucket", true, "", false},
		{"other bucket path style", "http://localhost:9000/other/sites/1/a.jpg", "bucket", true, "", false},
		{"bucket root only", "http://localhost:9000/bucket/", "bucket", true, "", false},
		{"no bucket configured", "http://cdn.example.com/sites/1/a.jpg", "", true, "sites/1/a.jpg", true},
		{"relative url", "/bucket/sites/1/a.jpg", "bucket", true, "", false},
		{"garbage", "::::", "bucket", true, "", false},
		{"path style host named after bucket", "http://minio.local:9000/minio/sites/x/images/1_a.jpg?X-Amz-Signature=abc", "minio", true, "sites/x/images/1_a.jpg", true},
		{"virtual hosted key starting with bucket", "https://minio.s3.amazonaws.com/minio/a.jpg", "minio", false, "minio/a.jpg", true},
		{"virtual hosted url on path style endpoint", "https://bucket.s3.amazonaws.com/sites/1/a.jpg", "bucket", true, "sites/1/a.jpg", true},
		{"path style url on virtual hosted endpoint", "http://localhost:9000/bucket/sites/1/a.jpg", "bucket", false, "sites/1/a.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := ExtractObjectPath(tt.url, tt.bucket, tt.style)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, path)
		})
	}
}
