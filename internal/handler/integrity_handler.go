package handler

import (
	"net/http"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// IntegrityHandler handles storage integrity check and repair requests
type IntegrityHandler struct {
	integrityService *service.IntegrityService
}

// NewIntegrityHandler creates a new IntegrityHandler
func NewIntegrityHandler(integrityService *service.IntegrityService) *IntegrityHandler {
	return &IntegrityHandler{integrityService: integrityService}
}

// RepairRequest represents a single-issue repair request body
type RepairRequest struct {
	Issue   string `json:"issue"`
	Confirm bool   `json:"confirm"`
}

// RepairResponse represents the outcome of a single-issue repair
type RepairResponse struct {
	Issue   string               `json:"issue"`
	Kind    domain.IssueKind     `json:"kind"`
	Outcome domain.RepairOutcome `json:"outcome"`
}

// BatchRepairRequest represents a batch repair request body. No kinds means every kind.
type BatchRepairRequest struct {
	Kinds   []string `json:"kinds"`
	Confirm bool     `json:"confirm"`
}

// Check handles POST /api/v1/integrity/check
func (h *IntegrityHandler) Check(c echo.Context) error {
	report, err := h.integrityService.Check(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "run integrity check")
	}
	return c.JSON(http.StatusOK, report)
}

// GetLatest handles GET /api/v1/integrity/latest
func (h *IntegrityHandler) GetLatest(c echo.Context) error {
	report, err := h.integrityService.Latest(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "get latest integrity report")
	}
	return c.JSON(http.StatusOK, report)
}

// GetHistory handles GET /api/v1/integrity/history
func (h *IntegrityHandler) GetHistory(c echo.Context) error {
	history, err := h.integrityService.History(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, "get integrity history")
	}
	return c.JSON(http.StatusOK, history)
}

// Repair handles POST /api/v1/integrity/repair
func (h *IntegrityHandler) Repair(c echo.Context) error {
	var req RepairRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Issue == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "issue", Message: "Issue ID is required"},
		})
	}

	ctx := c.Request().Context()
	issue, err := h.integrityService.FindIssue(ctx, req.Issue)
	if err != nil {
		return handleServiceError(c, err, "find integrity issue")
	}

	outcome, err := h.integrityService.Repair(ctx, *issue, req.Confirm)
	if err != nil {
		return handleServiceError(c, err, "repair integrity issue")
	}

	log.Info().Str("issue_id", issue.ID).Str("kind", string(issue.Kind)).Str("outcome", string(outcome)).Msg("Integrity issue repaired")
	return c.JSON(http.StatusOK, RepairResponse{Issue: issue.ID, Kind: issue.Kind, Outcome: outcome})
}

// BatchRepair handles POST /api/v1/integrity/repair/batch
// Repairs the issues of the cached report that match the requested kinds.
func (h *IntegrityHandler) BatchRepair(c echo.Context) error {
	var req BatchRepairRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	opts := service.BatchRepairOptions{Confirm: req.Confirm}
	for _, kind := range req.Kinds {
		opts.Kinds = append(opts.Kinds, domain.IssueKind(kind))
	}

	result, err := h.integrityService.BatchRepairLatest(c.Request().Context(), opts)
	if err != nil {
		return handleServiceError(c, err, "batch repair integrity issues")
	}
	return c.JSON(http.StatusOK, result)
}
