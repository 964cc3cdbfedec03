// Package api provides the HTTP transport for the chat service.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nimser/chatstream/internal/chat"
	"github.com/nimser/chatstream/internal/transport/ws"
)

// Handler handles HTTP requests.
type Handler struct {
	svc *chat.Service
	hub *ws.Hub
}

// NewHandler creates a new handler. The hub may be nil; stream events are
// then only delivered on the HTTP response.
func NewHandler(svc *chat.Service, hub *ws.Hub) *Handler {
	return &Handler{
		svc: svc,
		hub: hub,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/chat", h.Chat)
	e.POST("/v1/object", h.Object)

	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.GET("/v1/sessions/:session_id/messages", h.GetSessionMessages)

	e.GET("/v1/models", h.ListModels)

	e.GET("/health", h.Health)
}

// NewServer creates the echo server with standard middleware and all routes
// registered. The ws server may be nil to disable the live observer endpoint.
func NewServer(h *Handler, wsServer *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)
	if wsServer != nil {
		e.GET("/v1/sessions/:session_id/live", wsServer.HandleObserve)
	}
	return e
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
