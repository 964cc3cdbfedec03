// Package store provides durable keyed storage of conversation message lists.
package store

import (
	"context"

	"github.com/nimser/chatstream/internal/domain"
)

// Store is the message store shared by the session manager and the
// reconciler. Append is the atomic unit of mutation: all messages in one
// Append call become visible together or not at all. No multi-call
// transactions are offered. Sessions are never deleted through this
// interface.
type Store interface {
	// GetSession returns the session with its full ordered message list,
	// or nil if no session exists for the id.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// CreateSession creates a session seeded with the given messages.
	CreateSession(ctx context.Context, sessionID string, messages []domain.Message) error

	// AppendMessages atomically appends messages to an existing session.
	AppendMessages(ctx context.Context, sessionID string, messages []domain.Message) error

	// GetMessages returns up to limit messages of a session in insertion
	// order, optionally only those before the given message id.
	GetMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error)

	Close() error
}
