package handlers

import (
	"net/http"

	"github.com/echowall/backend/pkg/cache"
	"github.com/labstack/echo/v4"
)

// CacheAdminHandler exposes cache observability and manual eviction
type CacheAdminHandler struct {
	store *cache.Store
}

// NewCacheAdminHandler creates a new CacheAdminHandler
func NewCacheAdminHandler(store *cache.Store) *CacheAdminHandler {
	return &CacheAdminHandler{store: store}
}

// RegisterCacheAdminRoutes registers cache admin routes
func (h *CacheAdminHandler) RegisterCacheAdminRoutes(g *echo.Group) {
	g.GET("/cache/stats", h.GetStats)
	g.POST("/cache/evict", h.Evict)
}

// GetStats returns the running hit/stale/miss/eviction counters and the
// current number of live entries.
func (h *CacheAdminHandler) GetStats(c echo.Context) error {
	entries, err := h.store.Entries(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"entries": entries,
		"stats":   h.store.Stats(),
	})
}

type evictRequest struct {
	Patterns []string `json:"patterns" validate:"required,min=1,dive,required"`
}

// Evict drops every cached entry matching the given glob patterns.
func (h *CacheAdminHandler) Evict(c echo.Context) error {
	req := new(evictRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	h.store.Evict(c.Request().Context(), req.Patterns...)
	return c.JSON(http.StatusOK, echo.Map{"evicted": true, "patterns": req.Patterns})
}
