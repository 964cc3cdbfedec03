package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nimser/chatstream/internal/domain"
	"github.com/nimser/chatstream/internal/transport/ws"
)

// broadcaster mirrors stream events to a session's live observers.
type broadcaster interface {
	BroadcastJSON(sessionID string, v interface{}) error
}

// sseEmitter writes stream events to the HTTP response as Server-Sent
// Events, flushing after each one. The HTTP response is the single owned
// consumer; the observer mirror is best effort and never interrupts it.
type sseEmitter struct {
	resp      *echo.Response
	mirror    broadcaster
	sessionID string
}

func newSSEEmitter(c echo.Context, hub *ws.Hub, sessionID string) *sseEmitter {
	e := &sseEmitter{
		resp:      c.Response(),
		sessionID: sessionID,
	}
	if hub != nil {
		e.mirror = hub
	}
	return e
}

// start writes the SSE response headers. The session id travels in a header
// so callers of a new session learn it before the first event.
func (e *sseEmitter) start() {
	h := e.resp.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Session-ID", e.sessionID)
	e.resp.WriteHeader(http.StatusOK)
	e.resp.Flush()
}

// Emit writes one event frame and flushes it out.
func (e *sseEmitter) Emit(event domain.StreamEvent) error {
	payload := []byte("{}")
	if event.Payload != nil {
		var err error
		payload, err = json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event payload: %w", err)
		}
	}

	if _, err := fmt.Fprintf(e.resp, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	e.resp.Flush()

	if e.mirror != nil {
		if err := e.mirror.BroadcastJSON(e.sessionID, event); err != nil {
			log.Printf("WARN: failed to mirror event to observers of session %s: %v", e.sessionID, err)
		}
	}
	return nil
}
