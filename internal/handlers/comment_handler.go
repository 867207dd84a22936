package handlers

import (
	"net/http"
	"strconv"

	"github.com/echowall/backend/internal/models"
	"github.com/echowall/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	interactions *service.InteractionService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(interactions *service.InteractionService) *CommentHandler {
	return &CommentHandler{interactions: interactions}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetComments)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment appends a comment, or a reply when parent_id is set.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	req := new(models.CreateCommentRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	view, err := h.interactions.AddComment(c.Request().Context(), userID, postID, req.Content, req.ParentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

// GetComments returns a post's comment tree, top-level comments newest
// first with replies nested under their parents.
func (h *CommentHandler) GetComments(c echo.Context) error {
	postID := c.Param("post_id")

	tree, err := h.interactions.ListComments(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": tree, "total": len(tree)})
}

// DeleteComment removes a comment owned by the caller.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment id")
	}

	if err := h.interactions.DeleteComment(c.Request().Context(), userID, uint(commentID)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
