package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nimser/chatstream/internal/domain"
)

// Submit validates an inbound message batch and persists it against the
// session. A new session is seeded with the full batch; an existing session
// only receives the final message of the batch, since the preceding entries
// are the client's echo of history already on record.
//
// Validation failures return a *domain.ValidationError and leave the store
// untouched.
func (s *Service) Submit(ctx context.Context, sessionID string, messages []domain.Message) (*domain.Session, error) {
	if err := validateBatch(messages); err != nil {
		return nil, err
	}

	if sessionID == "" {
		sessionID = "sess_" + uuid.New().String()[:8]
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if session == nil {
		seeded := stampMessages(sessionID, messages)
		if err := s.store.CreateSession(ctx, sessionID, seeded); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	} else {
		last := stampMessages(sessionID, messages[len(messages)-1:])
		if err := s.store.AppendMessages(ctx, sessionID, last); err != nil {
			return nil, fmt.Errorf("failed to append message: %w", err)
		}
	}

	session, err = s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}
	return session, nil
}

func validateBatch(messages []domain.Message) error {
	if len(messages) == 0 {
		return &domain.ValidationError{Reason: "message batch must not be empty"}
	}
	last := messages[len(messages)-1]
	if last.Role != domain.RoleUser {
		return &domain.ValidationError{Reason: "last message in batch must have role user"}
	}
	for i, m := range messages {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			return &domain.ValidationError{Reason: fmt.Sprintf("message %d has unknown role %q", i, m.Role)}
		}
		if len(m.Parts) == 0 {
			return &domain.ValidationError{Reason: fmt.Sprintf("message %d has no content parts", i)}
		}
	}
	return nil
}

// stampMessages assigns ids, session binding and timestamps to messages that
// are about to be persisted. Client-supplied ids are preserved when present.
func stampMessages(sessionID string, messages []domain.Message) []domain.Message {
	now := time.Now().UTC()
	stamped := make([]domain.Message, len(messages))
	for i, m := range messages {
		if m.MessageID == "" {
			m.MessageID = newMessageID()
		}
		m.SessionID = sessionID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		stamped[i] = m
	}
	return stamped
}
