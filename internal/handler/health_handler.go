package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	db           Pinger
	cloudEnabled bool
}

// NewHealthHandler creates a new HealthHandler. db may be nil.
func NewHealthHandler(db Pinger, cloudEnabled bool) *HealthHandler {
	return &HealthHandler{db: db, cloudEnabled: cloudEnabled}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	response := HealthResponse{Status: "ok", Database: "ok", Storage: "cloud"}
	if !h.cloudEnabled {
		response.Storage = "local-only"
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Health check: database unreachable")
			response.Status = "degraded"
			response.Database = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, response)
		}
	}

	return c.JSON(http.StatusOK, response)
}
