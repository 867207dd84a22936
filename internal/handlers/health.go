package handlers

import (
	"net/http"

	"github.com/echowall/backend/internal/realtime"
	"github.com/labstack/echo/v4"
)

// HealthHandler reports process liveness
type HealthHandler struct {
	hub *realtime.Hub
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{hub: hub}
}

// RegisterHealthRoutes registers the health route
func (h *HealthHandler) RegisterHealthRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

// Health returns ok with the current local websocket session count.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"sessions": h.hub.LocalSessions(),
	})
}
