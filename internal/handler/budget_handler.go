package handler

import (
	"fmt"
	"net/http"

	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BudgetHandler handles budget summary and export requests
type BudgetHandler struct {
	budgetService *service.BudgetService
	exportService *service.ExportService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService, exportService *service.ExportService) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		exportService: exportService,
	}
}

// GetSummary handles GET /api/v1/sites/:id/summary
func (h *BudgetHandler) GetSummary(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	summary, err := h.budgetService.GetSiteSummary(c.Request().Context(), siteID)
	if err != nil {
		return handleServiceError(c, err, "get site summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// Export handles GET /api/v1/sites/:id/export
// Responds with an xlsx workbook of the site's budget and transactions.
func (h *BudgetHandler) Export(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	data, err := h.exportService.ExportSite(c.Request().Context(), siteID)
	if err != nil {
		return handleServiceError(c, err, "export site")
	}

	log.Info().Str("site_id", siteID.String()).Int("bytes", len(data)).Msg("Site exported")

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "site-"+siteID.String()+".xlsx"))
	return c.Blob(http.StatusOK, service.XLSXContentType, data)
}
