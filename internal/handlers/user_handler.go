package handlers

import (
	"net/http"

	"github.com/echowall/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo, followRepository: followRepo}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/:user_id", h.GetUser)
}

// GetUser returns a user's profile with follow counts derived from the
// relation rows.
func (h *UserHandler) GetUser(c echo.Context) error {
	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	followers, err := h.followRepository.GetFollowersCount(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	following, err := h.followRepository.GetFollowingCount(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":            user,
		"followers_count": followers,
		"following_count": following,
	})
}
