package handler

import (
	"net/http"
	"strings"

	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// sitePrefix prefixes per-site channel names
const sitePrefix = "site:"

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Authentication happens in middleware
// before the upgrade.
func NewWebSocketHandler(hub *websocket.Hub, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Same-origin or non-browser clients
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// parseChannel maps the channel query value to a hub channel. Empty means the global channel.
func parseChannel(raw string) (string, bool) {
	switch {
	case raw == "" || raw == websocket.GlobalChannel:
		return websocket.GlobalChannel, true
	case strings.HasPrefix(raw, sitePrefix):
		siteID, err := uuid.Parse(strings.TrimPrefix(raw, sitePrefix))
		if err != nil {
			return "", false
		}
		return websocket.SiteChannel(siteID), true
	default:
		return "", false
	}
}

// HandleWS handles WebSocket connection requests at GET /ws
// Query params: channel ("global" or "site:<id>")
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	channel, ok := parseChannel(c.QueryParam("channel"))
	if !ok {
		log.Debug().Str("channel", c.QueryParam("channel")).Msg("WebSocket connection rejected: invalid channel")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid channel")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, channel, h.hub)
	h.hub.Register(client)

	log.Info().
		Str("channel", channel).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
