package handlers

import (
	"net/http"

	"github.com/echowall/backend/internal/models"
	"github.com/echowall/backend/internal/repositories"
	"github.com/echowall/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CollectHandler handles HTTP requests related to bookmarks
type CollectHandler struct {
	interactions      *service.InteractionService
	collectRepository repositories.CollectRepository
	postRepository    repositories.PostRepository
}

// NewCollectHandler creates a new CollectHandler
func NewCollectHandler(interactions *service.InteractionService, collectRepo repositories.CollectRepository, postRepo repositories.PostRepository) *CollectHandler {
	return &CollectHandler{
		interactions:      interactions,
		collectRepository: collectRepo,
		postRepository:    postRepo,
	}
}

// RegisterCollectRoutes registers bookmark-related routes
func (h *CollectHandler) RegisterCollectRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/collect", h.ToggleCollect)
	g.GET("/posts/:post_id/collect", h.GetCollectStatus)
	g.GET("/collects", h.GetMyCollects)
}

// ToggleCollect flips the caller's bookmark on a post.
func (h *CollectHandler) ToggleCollect(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	state, err := h.interactions.ToggleCollect(c.Request().Context(), userID, postID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "post_id": postID, "state": state})
}

// GetCollectStatus reports whether the caller bookmarked the post.
func (h *CollectHandler) GetCollectStatus(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	hasCollected, err := h.collectRepository.HasUserCollectedPost(postID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "has_collected": hasCollected})
}

// GetMyCollects lists the caller's bookmarked posts, newest bookmark
// first. A bookmark whose post has been deleted is skipped.
func (h *CollectHandler) GetMyCollects(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	collects, err := h.collectRepository.GetCollectsByUser(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts := make([]models.Post, 0, len(collects))
	for _, collect := range collects {
		post, err := h.postRepository.GetPostByID(c.Request().Context(), collect.PostID)
		if err != nil {
			continue
		}
		posts = append(posts, *post)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts, "total": len(posts)})
}
