package handlers

import (
	"net/http"

	"github.com/echowall/backend/internal/repositories"
	"github.com/echowall/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	interactions   *service.InteractionService
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(interactions *service.InteractionService, likeRepo repositories.LikeRepository, postRepo repositories.PostRepository) *LikeHandler {
	return &LikeHandler{
		interactions:   interactions,
		likeRepository: likeRepo,
		postRepository: postRepo,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/like", h.ToggleLike)
	g.GET("/posts/:post_id/like", h.GetLikeStatus)
}

// ToggleLike flips the caller's like on a post. The response reports the
// resulting state, so a client out of sync self-corrects on the next tap.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	state, err := h.interactions.ToggleLike(c.Request().Context(), userID, postID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "post_id": postID, "state": state})
}

// GetLikeStatus reports whether the caller liked the post, and the total.
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	count, err := h.likeRepository.GetLikesCountByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	likerIDs, err := h.likeRepository.GetLikerIDsByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"post_id":     postID,
		"has_liked":   hasLiked,
		"likes_count": count,
		"liker_ids":   likerIDs,
	})
}
