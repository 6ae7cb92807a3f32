package handler

import (
	"net/http"

	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DiaryHandler handles diary entry HTTP requests
type DiaryHandler struct {
	diaryService *service.DiaryService
}

// NewDiaryHandler creates a new DiaryHandler
func NewDiaryHandler(diaryService *service.DiaryService) *DiaryHandler {
	return &DiaryHandler{diaryService: diaryService}
}

// DiaryRequest represents the create/update diary entry request body
type DiaryRequest struct {
	CategoryID string `json:"categoryId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	RecordDate string `json:"recordDate"`
}

func (r DiaryRequest) toInput() (service.DiaryInput, []ValidationError) {
	var errs []ValidationError
	categoryID, verr := parseUUIDField("categoryId", r.CategoryID)
	if verr != nil {
		errs = append(errs, *verr)
	}
	recordDate, verr := parseDate("recordDate", r.RecordDate)
	if verr != nil {
		errs = append(errs, *verr)
	}
	return service.DiaryInput{
		CategoryID: categoryID,
		Title:      r.Title,
		Content:    r.Content,
		RecordDate: recordDate,
	}, errs
}

// CreateEntry handles POST /api/v1/sites/:id/diary
func (h *DiaryHandler) CreateEntry(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	var req DiaryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	entry, err := h.diaryService.CreateEntry(c.Request().Context(), siteID, input)
	if err != nil {
		return handleServiceError(c, err, "create diary entry")
	}

	log.Info().Str("site_id", siteID.String()).Str("entry_id", entry.ID.String()).Msg("Diary entry created")
	return c.JSON(http.StatusCreated, entry)
}

// GetEntries handles GET /api/v1/sites/:id/diary
func (h *DiaryHandler) GetEntries(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	entries, err := h.diaryService.ListEntries(c.Request().Context(), siteID)
	if err != nil {
		return handleServiceError(c, err, "get diary entries")
	}
	return c.JSON(http.StatusOK, entries)
}

// GetEntry handles GET /api/v1/diary/:id
func (h *DiaryHandler) GetEntry(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid diary entry ID", nil)
	}

	entry, err := h.diaryService.GetEntry(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get diary entry")
	}
	return c.JSON(http.StatusOK, entry)
}

// UpdateEntry handles PUT /api/v1/diary/:id
func (h *DiaryHandler) UpdateEntry(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid diary entry ID", nil)
	}

	var req DiaryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	entry, err := h.diaryService.UpdateEntry(c.Request().Context(), id, input)
	if err != nil {
		return handleServiceError(c, err, "update diary entry")
	}
	return c.JSON(http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/v1/diary/:id
func (h *DiaryHandler) DeleteEntry(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid diary entry ID", nil)
	}

	if err := h.diaryService.DeleteEntry(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete diary entry")
	}
	return c.NoContent(http.StatusNoContent)
}
