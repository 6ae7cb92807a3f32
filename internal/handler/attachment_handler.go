package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AttachmentFormField is the multipart field carrying uploaded files
const AttachmentFormField = "files"

// AttachmentHandler handles attachment upload, removal and resolution
type AttachmentHandler struct {
	attachmentService *service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// ResolveAttachmentResponse represents a viewable attachment reference
type ResolveAttachmentResponse struct {
	Location domain.StorageLocation `json:"location"`
	URL      string                 `json:"url"`
}

// DeletionResponse represents the outcome of purging a stored file
type DeletionResponse struct {
	Status domain.DeletionStatus `json:"status"`
	Error  string                `json:"error,omitempty"`
}

// DetachResponse represents the owner's attachment set after a detach
type DetachResponse struct {
	Attachments domain.AttachmentSet `json:"attachments"`
	Deletion    *DeletionResponse    `json:"deletion,omitempty"`
}

func ownerFromPath(c echo.Context) (domain.OwnerRef, error) {
	return domain.ParseOwnerRef(c.Param("ownerKind"), c.Param("ownerId"))
}

// attachmentFromQuery builds the addressed attachment from the url, or kind and id, query params.
// kind is optional with url; the service looks it up on the owner.
func attachmentFromQuery(c echo.Context) domain.SavedAttachment {
	kind := domain.AttachmentKind(c.QueryParam("kind"))
	if url := c.QueryParam("url"); url != "" {
		return domain.NewCloudAttachment(kind, url)
	}
	return domain.NewLocalAttachment(kind, c.QueryParam("id"))
}

func allStorageFull(itemErrs []service.BatchItemError) bool {
	if len(itemErrs) == 0 {
		return false
	}
	for _, itemErr := range itemErrs {
		if !errors.Is(itemErr.Err, domain.ErrLocalStorageFull) {
			return false
		}
	}
	return true
}

// Upload handles POST /api/v1/attachments/:ownerKind/:ownerId/:kind
// Every file in the multipart field "files" is saved and appended to the owner's attachments.
func (h *AttachmentHandler) Upload(c echo.Context) error {
	owner, err := ownerFromPath(c)
	if err != nil {
		return NewValidationError(c, "Invalid attachment owner", []ValidationError{
			{Field: "owner", Message: err.Error()},
		})
	}
	kind := domain.AttachmentKind(c.Param("kind"))
	if !kind.IsValid() {
		return handleServiceError(c, domain.ErrInvalidAttachmentKind, "upload attachments")
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File[AttachmentFormField]) == 0 {
		return NewValidationError(c, "No files provided", []ValidationError{
			{Field: AttachmentFormField, Message: "At least one file is required"},
		})
	}

	files := make([]service.FileUpload, 0, len(form.File[AttachmentFormField]))
	for _, header := range form.File[AttachmentFormField] {
		src, err := header.Open()
		if err != nil {
			log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to open uploaded file")
			return NewInternalError(c, "Failed to process file")
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to read uploaded file")
			return NewInternalError(c, "Failed to read file")
		}
		files = append(files, service.FileUpload{Filename: header.Filename, Data: data})
	}

	result, err := h.attachmentService.Attach(c.Request().Context(), owner, kind, files)
	if err != nil {
		return handleServiceError(c, err, "upload attachments")
	}

	if len(result.Saved) == 0 {
		if allStorageFull(result.Errors) {
			return NewInsufficientStorageError(c, "Storage capacity insufficient")
		}
		errs := make([]ValidationError, len(result.Errors))
		for i, itemErr := range result.Errors {
			errs[i] = ValidationError{Field: itemErr.Filename, Message: itemErr.Message}
		}
		return NewValidationError(c, "No files could be saved", errs)
	}

	log.Info().
		Str("owner", owner.String()).
		Str("kind", string(kind)).
		Int("saved", len(result.Saved)).
		Int("failed", len(result.Errors)).
		Msg("Attachments uploaded")

	return c.JSON(http.StatusCreated, result)
}

// Detach handles DELETE /api/v1/attachments/:ownerKind/:ownerId
// Query params: url, or kind and id, address the attachment. purge=true also deletes the stored file.
func (h *AttachmentHandler) Detach(c echo.Context) error {
	owner, err := ownerFromPath(c)
	if err != nil {
		return NewValidationError(c, "Invalid attachment owner", []ValidationError{
			{Field: "owner", Message: err.Error()},
		})
	}

	purge := false
	if raw := c.QueryParam("purge"); raw != "" {
		purge, err = strconv.ParseBool(raw)
		if err != nil {
			return NewValidationError(c, "Invalid purge flag", []ValidationError{
				{Field: "purge", Message: "Must be true or false"},
			})
		}
	}

	att := attachmentFromQuery(c)
	result, err := h.attachmentService.Detach(c.Request().Context(), owner, att, purge)
	if err != nil {
		return handleServiceError(c, err, "detach attachment")
	}

	response := DetachResponse{Attachments: result.Attachments}
	if result.Deletion != nil {
		response.Deletion = &DeletionResponse{Status: result.Deletion.Status, Error: result.Deletion.Error()}
	}

	log.Info().Str("owner", owner.String()).Str("location", string(att.Location)).Bool("purge", purge).Msg("Attachment detached")
	return c.JSON(http.StatusOK, response)
}

// Resolve handles GET /api/v1/attachments/:ownerKind/:ownerId/resolve
func (h *AttachmentHandler) Resolve(c echo.Context) error {
	owner, err := ownerFromPath(c)
	if err != nil {
		return NewValidationError(c, "Invalid attachment owner", []ValidationError{
			{Field: "owner", Message: err.Error()},
		})
	}

	att := attachmentFromQuery(c)
	url, err := h.attachmentService.Resolve(c.Request().Context(), owner, att)
	if err != nil {
		return handleServiceError(c, err, "resolve attachment")
	}

	return c.JSON(http.StatusOK, ResolveAttachmentResponse{Location: att.Location, URL: url})
}
