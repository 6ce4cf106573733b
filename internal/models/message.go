package models

import "time"

// MessageRole identifies the author of a conversation message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// PlaceholderAnswer stands in for a model response that carried no text
const PlaceholderAnswer = "I'm sorry, I couldn't generate a response."

// Message is one entry in a session's append-only history
type Message struct {
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	HTML      string      `json:"html,omitempty"` // Rendered markdown, assistant messages only
	Timestamp time.Time   `json:"timestamp"`
}

// CloneMessages returns a copy of the slice so callers cannot mutate session history
func CloneMessages(in []Message) []Message {
	if in == nil {
		return []Message{}
	}
	out := make([]Message, len(in))
	copy(out, in)
	return out
}
