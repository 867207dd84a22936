package handlers

import (
	"net/http"
	"strconv"

	"github.com/echowall/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles HTTP requests for the notification inbox
type MessageHandler struct {
	inbox *service.InboxService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(inbox *service.InboxService) *MessageHandler {
	return &MessageHandler{inbox: inbox}
}

// RegisterMessageRoutes registers inbox-related routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/messages", h.GetMessages)
	g.GET("/messages/unread", h.GetUnreadCount)
	g.PUT("/messages/read-all", h.MarkAllRead)
	g.PUT("/messages/:id/read", h.MarkRead)
	g.DELETE("/messages/:id", h.DeleteMessage)
}

// GetMessages returns the caller's inbox newest first, with the unread count.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	messages, unread, err := h.inbox.List(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"messages":     messages,
		"total":        len(messages),
		"unread_count": unread,
	})
}

// GetUnreadCount returns only the unread counter, for badge polling.
func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	count, err := h.inbox.UnreadCount(userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread_count": count})
}

// MarkRead marks one of the caller's messages read.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid message id")
	}

	if err := h.inbox.MarkRead(c.Request().Context(), userID, uint(messageID)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead marks every unread message of the caller read.
func (h *MessageHandler) MarkAllRead(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	if err := h.inbox.MarkAllRead(c.Request().Context(), userID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMessage removes one of the caller's messages.
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid message id")
	}

	if err := h.inbox.Delete(c.Request().Context(), userID, uint(messageID)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
