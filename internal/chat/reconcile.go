package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/nimser/chatstream/internal/domain"
	"github.com/nimser/chatstream/internal/store"
)

// generation reconciles one in-flight response: it accumulates everything
// forwarded to the caller so that the persisted assistant message is exactly
// the content the caller saw. It lives in the goroutine that owns the
// provider stream; persistence happens as a synchronous continuation once
// the stream is consumed.
type generation struct {
	sessionID string
	emit      Emitter
	start     time.Time

	text   strings.Builder
	object json.RawMessage
	usage  *domain.Usage
}

func newGeneration(sessionID string, emit Emitter) *generation {
	return &generation{
		sessionID: sessionID,
		emit:      emit,
		start:     time.Now(),
	}
}

func (g *generation) delta(text string) error {
	g.text.WriteString(text)
	return g.emit.Emit(domain.NewDeltaEvent(text))
}

// data relays an accumulated object snapshot to the caller. Snapshots are
// typically incomplete JSON; only the validated final object is recorded for
// persistence.
func (g *generation) data(partial string) error {
	return g.emit.Emit(domain.NewDataEvent(partial))
}

func (g *generation) toolCall(name string, args json.RawMessage) {
	if err := g.emit.Emit(domain.NewToolCallEvent(name, args)); err != nil {
		log.Printf("WARN: failed to emit tool_call event for session %s: %v", g.sessionID, err)
	}
}

func (g *generation) toolResult(name string, result json.RawMessage, errMsg string) {
	if err := g.emit.Emit(domain.NewToolResultEvent(name, result, errMsg)); err != nil {
		log.Printf("WARN: failed to emit tool_result event for session %s: %v", g.sessionID, err)
	}
}

// fail terminates the stream with an error event in place of finish. Nothing
// is persisted: a partial response never becomes durable history.
func (g *generation) fail(cause error) error {
	code, message := friendlyError(cause)
	log.Printf("ERROR: generation failed for session %s: %v", g.sessionID, cause)
	if err := g.emit.Emit(domain.NewErrorEvent(code, message)); err != nil {
		log.Printf("WARN: failed to emit error event for session %s: %v", g.sessionID, err)
	}
	return cause
}

// finish persists the accumulated assistant message and emits the terminal
// finish event. A persistence failure after a complete generation is logged
// for operators but does not take the response away from the caller: the
// finish event is emitted regardless.
func (g *generation) finish(ctx context.Context, st store.Store) error {
	durationMs := time.Since(g.start).Milliseconds()
	msg := g.assistantMessage(durationMs)

	if err := st.AppendMessages(ctx, g.sessionID, []domain.Message{msg}); err != nil {
		log.Printf("ERROR: failed to persist assistant message for session %s: %v", g.sessionID, err)
	}

	if err := g.emit.Emit(domain.NewFinishEvent(g.usage, durationMs)); err != nil {
		log.Printf("WARN: failed to emit finish event for session %s: %v", g.sessionID, err)
	}
	return nil
}

func (g *generation) assistantMessage(durationMs int64) domain.Message {
	var parts []domain.Part
	if g.text.Len() > 0 {
		parts = append(parts, domain.Part{Type: domain.PartTypeText, Text: g.text.String()})
	}
	if len(g.object) > 0 {
		parts = append(parts, domain.Part{Type: domain.PartTypeData, Data: g.object})
	}
	if len(parts) == 0 {
		parts = []domain.Part{{Type: domain.PartTypeText, Text: ""}}
	}

	return domain.Message{
		MessageID: newMessageID(),
		SessionID: g.sessionID,
		Role:      domain.RoleAssistant,
		Parts:     parts,
		Metadata:  &domain.Metadata{DurationMs: durationMs},
		CreatedAt: time.Now().UTC(),
	}
}

// friendlyError maps an internal failure to the code and user-facing message
// carried by the error event. Internal detail stays in the logs.
func friendlyError(err error) (code, message string) {
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Kind {
		case domain.ProviderErrRetryExhausted:
			return string(provErr.Kind), "Too many retries. Aborting."
		case domain.ProviderErrRateLimited:
			return string(provErr.Kind), "Rate limit reached. Please try again shortly."
		case domain.ProviderErrInvalidRequest:
			return string(provErr.Kind), "The request was rejected. Please rephrase and try again."
		default:
			return string(provErr.Kind), "Something went wrong. Please try again."
		}
	}
	return "internal", "Something went wrong. Please try again."
}
