package domain

import "encoding/json"

// StreamEventType represents the type of an outward stream event.
type StreamEventType string

const (
	StreamEventDelta      StreamEventType = "delta"
	StreamEventData       StreamEventType = "data"
	StreamEventToolCall   StreamEventType = "tool_call"
	StreamEventToolResult StreamEventType = "tool_result"
	StreamEventFinish     StreamEventType = "finish"
	StreamEventError      StreamEventType = "error"
)

// StreamEvent is one typed event relayed to the caller while a response is
// being generated. The payload shape depends on the event type.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Payload any             `json:"payload,omitempty"`
}

// DeltaPayload is the payload for a delta event.
type DeltaPayload struct {
	Text string `json:"text"`
}

// DataPayload is the payload for a data event. JSON holds the object text
// accumulated so far. Mid-stream snapshots are usually incomplete JSON, so
// the text is carried as a plain string.
type DataPayload struct {
	JSON string `json:"json"`
}

// ToolCallPayload is the payload for a tool_call event.
type ToolCallPayload struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolResultPayload is the payload for a tool_result event.
type ToolResultPayload struct {
	Name   string          `json:"name"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// FinishPayload is the payload for the terminal finish event.
type FinishPayload struct {
	Usage      *Usage `json:"usage,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// ErrorPayload is the payload for an error event. An error event terminates
// the stream in place of finish.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Usage represents token usage reported by the model provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// NewDeltaEvent builds a delta stream event.
func NewDeltaEvent(text string) StreamEvent {
	return StreamEvent{Type: StreamEventDelta, Payload: DeltaPayload{Text: text}}
}

// NewDataEvent builds a data stream event carrying the accumulated object
// text.
func NewDataEvent(partial string) StreamEvent {
	return StreamEvent{Type: StreamEventData, Payload: DataPayload{JSON: partial}}
}

// NewToolCallEvent builds a tool_call stream event.
func NewToolCallEvent(name string, args json.RawMessage) StreamEvent {
	return StreamEvent{Type: StreamEventToolCall, Payload: ToolCallPayload{Name: name, Args: args}}
}

// NewToolResultEvent builds a tool_result stream event.
func NewToolResultEvent(name string, result json.RawMessage, errMsg string) StreamEvent {
	return StreamEvent{Type: StreamEventToolResult, Payload: ToolResultPayload{Name: name, Result: result, Error: errMsg}}
}

// NewFinishEvent builds the terminal finish stream event.
func NewFinishEvent(usage *Usage, durationMs int64) StreamEvent {
	return StreamEvent{Type: StreamEventFinish, Payload: FinishPayload{Usage: usage, DurationMs: durationMs}}
}

// NewErrorEvent builds an error stream event.
func NewErrorEvent(code, message string) StreamEvent {
	return StreamEvent{Type: StreamEventError, Payload: ErrorPayload{Code: code, Message: message}}
}
