package handlers

import (
	"errors"
	"net/http"

	"github.com/echowall/backend/internal/middleware"
	"github.com/echowall/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// requireUserID extracts the authenticated user id set by the JWT
// middleware. Reaching a protected handler without it is a wiring bug,
// reported as 401 rather than a panic.
func requireUserID(c echo.Context) (uint, error) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Missing authenticated user")
	}
	return userID, nil
}

// httpError translates the service error taxonomy into HTTP status codes.
func httpError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Not allowed")
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Conflicting update, retry")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Service unavailable")
	}
}
