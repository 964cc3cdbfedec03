package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nimser/chatstream/internal/domain"
	"github.com/nimser/chatstream/internal/policy"
	"github.com/nimser/chatstream/internal/provider"
)

// toolCallBuilder accumulates streamed tool-call fragments correlated by
// index until the step finishes.
type toolCallBuilder struct {
	id   string
	name string
	args strings.Builder
}

// Generate streams an assistant response for the session's current history.
// Delta events are forwarded to the emitter as they arrive; when the model
// requests tool calls, they are executed and the loop continues with the
// results, bounded by MaxToolSteps. On success exactly one assistant message
// is persisted, then the finish event is emitted. On a provider failure
// nothing is persisted and an error event terminates the stream.
func (s *Service) Generate(ctx context.Context, session *domain.Session, emit Emitter) error {
	gen := newGeneration(session.SessionID, emit)
	history := toWireMessages(session.Messages)
	wireTools := s.wireTools()

	maxSteps := s.cfg.MaxToolSteps
	if maxSteps <= 0 {
		maxSteps = 1
	}

	for step := 0; step < maxSteps; step++ {
		req := &provider.ChatCompletionRequest{
			Model:    s.cfg.Model,
			Messages: history,
			Stream:   true,
			Tools:    wireTools,
		}

		calls, finishReason, err := s.streamStep(ctx, req, gen)
		if err != nil {
			return gen.fail(err)
		}

		if finishReason != "tool_calls" || len(calls) == 0 {
			break
		}

		history = append(history, assistantToolCallMessage(calls))
		for _, call := range calls {
			history = append(history, s.runTool(ctx, call, gen))
		}
	}

	return gen.finish(ctx, s.store)
}

// streamStep runs one provider round and returns any tool calls the model
// requested, plus the finish reason of the step.
func (s *Service) streamStep(ctx context.Context, req *provider.ChatCompletionRequest, gen *generation) ([]*toolCallBuilder, string, error) {
	builders := make(map[int]*toolCallBuilder)
	var finishReason string

	usage, err := s.provider.CreateChatCompletionStream(ctx, req, func(chunk *provider.StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
			if choice.Delta == nil {
				continue
			}
			if choice.Delta.Content != "" {
				if err := gen.delta(choice.Delta.Content); err != nil {
					return err
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				b, ok := builders[tc.Index]
				if !ok {
					b = &toolCallBuilder{}
					builders[tc.Index] = b
				}
				if tc.ID != "" {
					b.id = tc.ID
				}
				if tc.Function.Name != "" {
					b.name = tc.Function.Name
				}
				b.args.WriteString(tc.Function.Arguments)
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if usage != nil {
		gen.usage = &domain.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}

	indexes := make([]int, 0, len(builders))
	for i := range builders {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	calls := make([]*toolCallBuilder, 0, len(builders))
	for _, i := range indexes {
		calls = append(calls, builders[i])
	}
	return calls, finishReason, nil
}

// runTool gates a requested tool call through the policy engine, executes it
// and returns the tool-role message to feed back to the model. Execution
// failures and policy blocks are reported to the model as error results
// rather than aborting the generation.
func (s *Service) runTool(ctx context.Context, call *toolCallBuilder, gen *generation) provider.ChatMessage {
	args := json.RawMessage(call.args.String())
	gen.toolCall(call.name, args)

	result, err := s.executeTool(ctx, call.name, args)
	if err != nil {
		gen.toolResult(call.name, nil, err.Error())
		errBody, _ := json.Marshal(map[string]string{"error": err.Error()})
		return provider.ChatMessage{Role: "tool", Content: string(errBody), ToolCallID: call.id}
	}

	gen.toolResult(call.name, result, "")
	return provider.ChatMessage{Role: "tool", Content: string(result), ToolCallID: call.id}
}

func (s *Service) executeTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("no tool registry configured")
	}

	if s.policy != nil {
		var argMap map[string]interface{}
		_ = json.Unmarshal(args, &argMap)
		decision, err := s.policy.Evaluate(ctx, map[string]interface{}{
			"tool_name": name,
			"args":      argMap,
		})
		if err != nil {
			return nil, fmt.Errorf("policy evaluation failed: %w", err)
		}
		if decision == policy.DecisionBlock {
			return nil, fmt.Errorf("tool %s blocked by policy", name)
		}
	}

	return s.registry.Execute(ctx, name, args)
}

func (s *Service) wireTools() []provider.Tool {
	if s.registry == nil {
		return nil
	}
	defs := s.registry.List()
	if len(defs) == 0 {
		return nil
	}
	wire := make([]provider.Tool, len(defs))
	for i, d := range defs {
		wire[i] = provider.Tool{
			Type: "function",
			Function: provider.ToolFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		}
	}
	return wire
}

func assistantToolCallMessage(calls []*toolCallBuilder) provider.ChatMessage {
	wire := make([]provider.ToolCall, len(calls))
	for i, c := range calls {
		wire[i] = provider.ToolCall{
			Index: i,
			ID:    c.id,
			Type:  "function",
			Function: provider.ToolCallFunction{
				Name:      c.name,
				Arguments: c.args.String(),
			},
		}
	}
	return provider.ChatMessage{Role: "assistant", ToolCalls: wire}
}

// toWireMessages flattens persisted messages into provider wire messages.
// Data parts are sent as their raw JSON text.
func toWireMessages(messages []domain.Message) []provider.ChatMessage {
	wire := make([]provider.ChatMessage, 0, len(messages))
	for _, m := range messages {
		var sb strings.Builder
		for _, p := range m.Parts {
			switch p.Type {
			case domain.PartTypeText:
				sb.WriteString(p.Text)
			case domain.PartTypeData:
				sb.Write(p.Data)
			}
		}
		wire = append(wire, provider.ChatMessage{
			Role:    string(m.Role),
			Content: sb.String(),
		})
	}
	return wire
}
