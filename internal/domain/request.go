package domain

import "encoding/json"

// ChatRequest is the inbound body for a chat generation request. The caller
// resends the full message history each turn; only the most recent message is
// treated as new input for an existing session.
type ChatRequest struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// ObjectRequest is the inbound body for a structured-object generation
// request. Schema is a JSON Schema the model output must conform to.
type ObjectRequest struct {
	SessionID  string          `json:"session_id"`
	Messages   []Message       `json:"messages"`
	SchemaName string          `json:"schema_name,omitempty"`
	Schema     json.RawMessage `json:"schema"`
}

// MessagesResponse is the response body for listing a session's messages.
type MessagesResponse struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// ErrorResponse is the JSON error body for non-streaming failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
