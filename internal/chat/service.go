// Package chat implements the conversation core: validating and persisting
// inbound message batches, invoking the model, and reconciling the generation
// stream back into durable session state.
package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nimser/chatstream/internal/config"
	"github.com/nimser/chatstream/internal/domain"
	"github.com/nimser/chatstream/internal/policy"
	"github.com/nimser/chatstream/internal/provider"
	"github.com/nimser/chatstream/internal/store"
	"github.com/nimser/chatstream/internal/tools"
)

// Emitter receives stream events in arrival order as a response is
// generated. A single emitter serves a single request; implementations are
// not required to be safe for concurrent use.
type Emitter interface {
	Emit(event domain.StreamEvent) error
}

// Service coordinates the session manager, the model invocation adapter and
// the response reconciler.
type Service struct {
	store    store.Store
	provider provider.Client
	policy   *policy.Engine
	registry *tools.Registry
	cfg      *config.Config
}

// New creates a new chat service. The registry may be nil to disable
// tool-augmented generation; the policy engine may be nil to allow all tools.
func New(st store.Store, prov provider.Client, pol *policy.Engine, reg *tools.Registry, cfg *config.Config) *Service {
	return &Service{
		store:    st,
		provider: prov,
		policy:   pol,
		registry: reg,
		cfg:      cfg,
	}
}

// GetSession returns a session with its messages, or nil if it does not
// exist.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// GetMessages returns up to limit messages of a session in insertion order.
func (s *Service) GetMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error) {
	messages, err := s.store.GetMessages(ctx, sessionID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// ListModels returns the models available at the provider.
func (s *Service) ListModels(ctx context.Context) ([]provider.Model, error) {
	return s.provider.ListModels(ctx)
}

func newMessageID() string {
	return "msg_" + uuid.New().String()[:8]
}
