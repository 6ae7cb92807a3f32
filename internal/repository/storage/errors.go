package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/smithy-go"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/minio/minio-go/v7"
)

// unauthorizedCodes are provider error codes that mean the caller lacks permission
var unauthorizedCodes = map[string]bool{
	"AccessDenied":          true,
	"Forbidden":             true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"ExpiredToken":          true,
	"InvalidToken":          true,
	"Unauthorized":          true,
}

// classifyS3Error maps an AWS SDK failure onto the upload error taxonomy
func classifyS3Error(err error) *domain.UploadError {
	if code, ok := classifyContext(err); ok {
		return &domain.UploadError{Code: code, Err: err}
	}

	var maxAttempts *retry.MaxAttemptsError
	if errors.As(err, &maxAttempts) {
		return &domain.UploadError{Code: domain.UploadErrorRetryLimitExceeded, Err: err}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && unauthorizedCodes[apiErr.ErrorCode()] {
		return &domain.UploadError{Code: domain.UploadErrorUnauthorized, Err: err}
	}

	return &domain.UploadError{Code: domain.UploadErrorUnknown, Err: err}
}

// classifyMinIOError maps a minio-go failure onto the upload error taxonomy
func classifyMinIOError(err error) *domain.UploadError {
	if code, ok := classifyContext(err); ok {
		return &domain.UploadError{Code: code, Err: err}
	}

	resp := minio.ToErrorResponse(err)
	if unauthorizedCodes[resp.Code] {
		return &domain.UploadError{Code: domain.UploadErrorUnauthorized, Err: err}
	}

	return &domain.UploadError{Code: domain.UploadErrorUnknown, Err: err}
}

func classifyContext(err error) (domain.UploadErrorCode, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return domain.UploadErrorCanceled, true
	case errors.Is(err, context.DeadlineExceeded):
		return domain.UploadErrorRetryLimitExceeded, true
	}
	return "", false
}
