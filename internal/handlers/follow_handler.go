package handlers

import (
	"net/http"
	"strconv"

	"github.com/echowall/backend/internal/repositories"
	"github.com/echowall/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles HTTP requests related to follow relations
type FollowHandler struct {
	interactions     *service.InteractionService
	followRepository repositories.FollowRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(interactions *service.InteractionService, followRepo repositories.FollowRepository) *FollowHandler {
	return &FollowHandler{interactions: interactions, followRepository: followRepo}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:user_id/follow", h.Follow)
	g.DELETE("/users/:user_id/follow", h.Unfollow)
	g.GET("/users/:user_id/follow", h.GetFollowStats)
}

func pathUserID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}
	return uint(id), nil
}

// Follow makes the caller follow the path user. Following twice is a
// no-op that still returns the on state.
func (h *FollowHandler) Follow(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	followeeID, err := pathUserID(c)
	if err != nil {
		return err
	}

	state, err := h.interactions.Follow(c.Request().Context(), userID, followeeID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user_id": followeeID, "state": state})
}

// Unfollow removes the caller's follow of the path user.
func (h *FollowHandler) Unfollow(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	followeeID, err := pathUserID(c)
	if err != nil {
		return err
	}

	state, err := h.interactions.Unfollow(c.Request().Context(), userID, followeeID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user_id": followeeID, "state": state})
}

// GetFollowStats reports the path user's follower and following counts,
// derived from the relation rows, plus whether the caller follows them.
func (h *FollowHandler) GetFollowStats(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	targetID, err := pathUserID(c)
	if err != nil {
		return err
	}

	followers, err := h.followRepository.GetFollowersCount(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	following, err := h.followRepository.GetFollowingCount(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	isFollowing, err := h.followRepository.IsFollowing(userID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":         targetID,
		"followers_count": followers,
		"following_count": following,
		"is_following":    isFollowing,
	})
}
