package handler

import (
	"net/http"
	"strconv"

	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SiteHandler handles site-related HTTP requests
type SiteHandler struct {
	siteService *service.SiteService
}

// NewSiteHandler creates a new SiteHandler
func NewSiteHandler(siteService *service.SiteService) *SiteHandler {
	return &SiteHandler{siteService: siteService}
}

// SiteRequest represents the create/update site request body
type SiteRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Comment     *string `json:"comment,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (r SiteRequest) toInput() service.SiteInput {
	return service.SiteInput{
		Name:        r.Name,
		Description: r.Description,
		Comment:     r.Comment,
		IsActive:    r.IsActive,
	}
}

// CreateSite handles POST /api/v1/sites
func (h *SiteHandler) CreateSite(c echo.Context) error {
	var req SiteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	site, err := h.siteService.CreateSite(c.Request().Context(), req.toInput())
	if err != nil {
		return handleServiceError(c, err, "create site")
	}

	log.Info().Str("site_id", site.ID.String()).Str("name", site.Name).Msg("Site created")
	return c.JSON(http.StatusCreated, site)
}

// GetSites handles GET /api/v1/sites
// Query params: active (optional bool) restricts the list to active sites
func (h *SiteHandler) GetSites(c echo.Context) error {
	activeOnly := false
	if raw := c.QueryParam("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return NewValidationError(c, "Invalid active filter", []ValidationError{
				{Field: "active", Message: "Must be true or false"},
			})
		}
		activeOnly = parsed
	}

	sites, err := h.siteService.ListSites(c.Request().Context(), activeOnly)
	if err != nil {
		return handleServiceError(c, err, "get sites")
	}
	return c.JSON(http.StatusOK, sites)
}

// GetSite handles GET /api/v1/sites/:id
func (h *SiteHandler) GetSite(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	site, err := h.siteService.GetSite(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get site")
	}
	return c.JSON(http.StatusOK, site)
}

// UpdateSite handles PUT /api/v1/sites/:id
func (h *SiteHandler) UpdateSite(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	var req SiteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	site, err := h.siteService.UpdateSite(c.Request().Context(), id, req.toInput())
	if err != nil {
		return handleServiceError(c, err, "update site")
	}

	log.Info().Str("site_id", site.ID.String()).Msg("Site updated")
	return c.JSON(http.StatusOK, site)
}

// DeleteSite handles DELETE /api/v1/sites/:id
func (h *SiteHandler) DeleteSite(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	if err := h.siteService.DeleteSite(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete site")
	}

	log.Info().Str("site_id", id.String()).Msg("Site deleted")
	return c.NoContent(http.StatusNoContent)
}
