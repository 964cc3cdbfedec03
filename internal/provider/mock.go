package provider

import (
	"context"
	"fmt"
	"time"
)

// MockClient is a deterministic in-process implementation of Client for
// development and testing without a model endpoint.
type MockClient struct{}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Client = (*MockClient)(nil)

// CreateChatCompletion returns a canned response derived from the input.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	content := m.generateResponse(req)
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &ChatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: m.usage(req, content),
	}, nil
}

// CreateChatCompletionStream simulates streaming by chunking a canned
// response.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	content := m.generateResponse(req)
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_schema" {
		content = fmt.Sprintf(`{"mock": true, "model": %q}`, req.Model)
	}
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	chunks := splitIntoChunks(content, 10)
	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		finishReason := ""
		if i == len(chunks)-1 {
			finishReason = "stop"
		}
		err := callback(&StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []Choice{
				{
					Index:        0,
					Delta:        &ChatMessage{Role: "assistant", Content: chunk},
					FinishReason: finishReason,
				},
			},
		})
		if err != nil {
			return nil, err
		}
	}

	return m.usage(req, content), nil
}

// ListModels returns a fixed model list.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	return []Model{
		{ID: "mock-small", Object: "model", Created: time.Now().Unix(), OwnedBy: "mock"},
		{ID: "mock-large", Object: "model", Created: time.Now().Unix(), OwnedBy: "mock"},
	}, nil
}

func (m *MockClient) generateResponse(req *ChatCompletionRequest) string {
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = req.Messages[i].Content
			break
		}
	}
	if lastUser == "" {
		return "[MOCK] This is a mock response."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUser, 100))
}

func (m *MockClient) usage(req *ChatCompletionRequest, content string) *Usage {
	prompt := 0
	for _, msg := range req.Messages {
		prompt += len(msg.Content) / 4
	}
	completion := len(content) / 4
	return &Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

func splitIntoChunks(s string, chunkSize int) []string {
	if len(s) == 0 {
		return []string{""}
	}
	var chunks []string
	for i := 0; i < len(s); i += chunkSize {
		end := i + chunkSize
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[i:end])
	}
	return chunks
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
