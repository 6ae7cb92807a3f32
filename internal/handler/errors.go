package handler

import (
	"errors"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// fieldErrors maps validation sentinels to the request field they concern
var fieldErrors = map[error]ValidationError{
	domain.ErrNameRequired:      {Field: "name", Message: "Name is required"},
	domain.ErrNameTooLong:       {Field: "name", Message: "Name must be 100 characters or less"},
	domain.ErrTitleRequired:     {Field: "title", Message: "Title is required"},
	domain.ErrTitleTooLong:      {Field: "title", Message: "Title must be 200 characters or less"},
	domain.ErrContentTooLong:    {Field: "content", Message: "Content must be 5000 characters or less"},
	domain.ErrAmountNotPositive: {Field: "amount", Message: "Amount must be greater than zero"},
	domain.ErrBudgetNegative:    {Field: "budgetAmount", Message: "Budget amount cannot be negative"},
	domain.ErrDateRequired:      {Field: "date", Message: "Date is required"},
	domain.ErrCategorySiteMismatch: {
		Field: "categoryId", Message: "Category does not belong to this site",
	},
	domain.ErrFileTooLarge:          {Field: "files", Message: "File too large"},
	domain.ErrUnsupportedFileType:   {Field: "files", Message: "Unsupported file type"},
	domain.ErrInvalidImageData:      {Field: "files", Message: "Invalid image data"},
	domain.ErrInvalidAttachmentKind: {Field: "kind", Message: "Must be one of: images, documents"},
	domain.ErrInvalidAttachment:     {Field: "attachment", Message: "Provide either a url or an id"},
	domain.ErrUnknownIssueKind:      {Field: "kinds", Message: "Must be one of: broken_url, missing_in_storage, missing_in_db"},
}

var notFoundErrors = map[error]string{
	domain.ErrSiteNotFound:       "Site not found",
	domain.ErrCategoryNotFound:   "Category not found",
	domain.ErrIncomeNotFound:     "Income not found",
	domain.ErrExpenseNotFound:    "Expense not found",
	domain.ErrDiaryEntryNotFound: "Diary entry not found",
	domain.ErrAttachmentNotFound: "Attachment not found",
	domain.ErrNoIntegrityReport:  "No integrity check has been run yet",
	domain.ErrNotFound:           "Resource not found",
}

// handleServiceError writes the problem response for a service error. action names the
// failed operation in logs and in the internal error detail.
func handleServiceError(c echo.Context, err error, action string) error {
	for sentinel, fieldErr := range fieldErrors {
		if errors.Is(err, sentinel) {
			return NewValidationError(c, "Validation failed", []ValidationError{fieldErr})
		}
	}
	for sentinel, detail := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return NewNotFoundError(c, detail)
		}
	}

	var uploadErr *domain.UploadError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrConfirmationRequired):
		return NewConflictError(c, "Deleting stored objects requires confirm=true")
	case errors.Is(err, domain.ErrLocalStorageFull):
		return NewInsufficientStorageError(c, "Storage capacity insufficient")
	case errors.Is(err, domain.ErrStorageNotConfigured):
		return NewServiceUnavailableError(c, "Object storage is not configured")
	case errors.As(err, &uploadErr):
		return NewServiceUnavailableError(c, uploadErr.UserMessage())
	}

	log.Error().Err(err).Str("path", c.Path()).Msgf("Failed to %s", action)
	return NewInternalError(c, "Failed to "+action)
}

// parseUUIDParam reads a UUID path parameter
func parseUUIDParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
