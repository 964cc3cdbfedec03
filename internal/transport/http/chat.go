package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nimser/chatstream/internal/domain"
)

// Chat accepts a message batch, persists it and streams the assistant
// response back as SSE.
// POST /v1/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	session, err := h.svc.Submit(ctx, req.SessionID, req.Messages)
	if err != nil {
		return h.submitError(c, err)
	}

	emitter := newSSEEmitter(c, h.hub, session.SessionID)
	emitter.start()

	// Stream errors have already been reported to the caller as error
	// events; nothing more can be written to the response here.
	if err := h.svc.Generate(ctx, session, emitter); err != nil {
		log.Printf("ERROR: chat generation failed for session %s: %v", session.SessionID, err)
	}
	return nil
}

// submitError maps a submission failure onto a JSON error response.
// Validation failures are the caller's fault; everything else is ours.
func (h *Handler) submitError(c echo.Context, err error) error {
	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: valErr.Reason})
	}
	log.Printf("ERROR: failed to submit messages: %v", err)
	return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "failed to submit messages"})
}
