package chat

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nimser/chatstream/internal/domain"
	"github.com/nimser/chatstream/internal/provider"
)

// GenerateObject streams a schema-constrained structured response. The model
// is asked for JSON matching the named schema; each chunk extends the raw
// object text and a data event carries the accumulated snapshot. On success
// the final object is persisted as an assistant message with a data part.
func (s *Service) GenerateObject(ctx context.Context, session *domain.Session, schemaName string, schema json.RawMessage, emit Emitter) error {
	gen := newGeneration(session.SessionID, emit)

	req := &provider.ChatCompletionRequest{
		Model:    s.cfg.Model,
		Messages: toWireMessages(session.Messages),
		Stream:   true,
		ResponseFormat: &provider.ResponseFormat{
			Type: "json_schema",
			JSONSchema: &provider.JSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	var buf strings.Builder
	usage, err := s.provider.CreateChatCompletionStream(ctx, req, func(chunk *provider.StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.Delta == nil || choice.Delta.Content == "" {
				continue
			}
			buf.WriteString(choice.Delta.Content)
			if err := gen.data(buf.String()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return gen.fail(err)
	}
	if usage != nil {
		gen.usage = &domain.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}

	final := buf.String()
	if !json.Valid([]byte(final)) {
		return gen.fail(&domain.ProviderError{
			Kind:    domain.ProviderErrUpstream,
			Message: "model returned malformed object JSON",
		})
	}
	gen.object = json.RawMessage(final)

	return gen.finish(ctx, s.store)
}
