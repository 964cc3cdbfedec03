// Package domain defines the core domain models for the chat service.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartType identifies the kind of a message content part.
type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeData PartType = "data"
)

// Part is a single content part of a message: either plain text or a
// structured JSON payload produced by object generation.
type Part struct {
	Type PartType        `json:"type"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Metadata carries the fixed, enumerated metadata attached to a persisted
// assistant message. Keys are typed fields rather than an open map.
type Metadata struct {
	// DurationMs is the wall-clock generation time in milliseconds,
	// measured from request start to the terminal stream event.
	DurationMs int64 `json:"duration_ms"`
}

// Message represents a single turn in a conversation.
type Message struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id,omitempty"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Text returns the concatenated text parts of the message.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// TextMessage builds a message with a single text part.
func TextMessage(role Role, text string) Message {
	return Message{
		Role:  role,
		Parts: []Part{{Type: PartTypeText, Text: text}},
	}
}

// Session represents a persisted conversation. Messages are ordered by
// insertion; the sequence is append-only.
type Session struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}
