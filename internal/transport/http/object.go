package api

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nimser/chatstream/internal/domain"
)

// Object accepts a message batch plus a JSON Schema and streams a
// schema-constrained structured response back as SSE data events.
// POST /v1/object
func (h *Handler) Object(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ObjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}
	if len(req.Schema) == 0 {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "schema is required"})
	}
	schemaName := req.SchemaName
	if schemaName == "" {
		schemaName = "response"
	}

	session, err := h.svc.Submit(ctx, req.SessionID, req.Messages)
	if err != nil {
		return h.submitError(c, err)
	}

	emitter := newSSEEmitter(c, h.hub, session.SessionID)
	emitter.start()

	if err := h.svc.GenerateObject(ctx, session, schemaName, req.Schema, emitter); err != nil {
		log.Printf("ERROR: object generation failed for session %s: %v", session.SessionID, err)
	}
	return nil
}
