package handlers

import (
	"net/http"
	"strconv"

	"github.com/echowall/backend/internal/models"
	"github.com/echowall/backend/internal/repositories"
	"github.com/echowall/backend/internal/service"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PostHandler handles HTTP requests related to posts and feeds
type PostHandler struct {
	interactions   *service.InteractionService
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(interactions *service.InteractionService, postRepo repositories.PostRepository, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		interactions:   interactions,
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetFeed)
	g.GET("/posts/hot", h.GetHotFeed)
	g.GET("/posts/:post_id", h.GetPost)
	g.DELETE("/posts/:post_id", h.DeletePost)
	g.GET("/users/:user_id/posts", h.GetUserPosts)
}

// postView is a post joined with its author's display fields.
type postView struct {
	models.Post
	Author models.UserCompact `json:"author"`
}

func pagination(c echo.Context) (skip, limit int64) {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	size, _ := strconv.ParseInt(c.QueryParam("page_size"), 10, 64)
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (page - 1) * size, size
}

// enrich joins posts with their authors in one bulk lookup.
func (h *PostHandler) enrich(posts []models.Post) ([]postView, error) {
	authorIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]bool, len(posts))
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}
	authors, err := h.userRepository.GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		v := postView{Post: p}
		if author, ok := authors[p.AuthorID]; ok {
			v.Author = author.ToCompact()
		}
		views = append(views, v)
	}
	return views, nil
}

// CreatePost publishes a new post authored by the caller.
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	req := new(models.CreatePostRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	post, err := h.interactions.CreatePost(c.Request().Context(), userID, req.Content, req.Images)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetFeed returns the global feed, newest first, paginated.
func (h *PostHandler) GetFeed(c echo.Context) error {
	skip, limit := pagination(c)

	posts, err := h.postRepository.GetAllPosts(c.Request().Context(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	total, err := h.postRepository.CountPosts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views, err := h.enrich(posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": views, "total": total})
}

// GetHotFeed returns posts ranked by like count, ties broken by recency.
func (h *PostHandler) GetHotFeed(c echo.Context) error {
	skip, limit := pagination(c)

	posts, err := h.postRepository.GetHotPosts(c.Request().Context(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views, err := h.enrich(posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": views})
}

// GetPost returns a single post with its author.
func (h *PostHandler) GetPost(c echo.Context) error {
	postID := c.Param("post_id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	views, err := h.enrich([]models.Post{*post})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, views[0])
}

// DeletePost removes a post owned by the caller.
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID := c.Param("post_id")

	if err := h.interactions.DeletePost(c.Request().Context(), userID, postID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetUserPosts returns one author's posts, newest first, paginated.
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	authorID, err := pathUserID(c)
	if err != nil {
		return err
	}
	skip, limit := pagination(c)

	posts, err := h.postRepository.GetPostsByAuthorID(c.Request().Context(), authorID, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views, err := h.enrich(posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": views})
}
