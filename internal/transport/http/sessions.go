package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nimser/chatstream/internal/domain"
)

// GetSession returns a session with its full message history.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.svc.GetSession(ctx, sessionID)
	if err != nil {
		log.Printf("ERROR: failed to get session: %v", err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "failed to get session"})
	}
	if session == nil {
		return c.JSON(http.StatusNotFound, domain.ErrorResponse{Error: "session not found"})
	}

	return c.JSON(http.StatusOK, session)
}

// GetSessionMessages returns messages for a session, paginated backwards
// with before.
// GET /v1/sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 50
	}
	before := c.QueryParam("before")

	messages, err := h.svc.GetMessages(ctx, sessionID, limit+1, before)
	if err != nil {
		log.Printf("ERROR: failed to get messages: %v", err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "failed to get messages"})
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	return c.JSON(http.StatusOK, domain.MessagesResponse{
		Messages: messages,
		HasMore:  hasMore,
	})
}

// ListModels returns the models available at the configured provider.
// GET /v1/models
func (h *Handler) ListModels(c echo.Context) error {
	ctx := c.Request().Context()

	models, err := h.svc.ListModels(ctx)
	if err != nil {
		log.Printf("ERROR: failed to list models: %v", err)
		return c.JSON(http.StatusBadGateway, domain.ErrorResponse{Error: "failed to list models"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"object": "list",
		"data":   models,
	})
}
