package models

import "time"

// SessionState is the derived state of a conversation
type SessionState string

const (
	SessionStateEmpty            SessionState = "empty"
	SessionStateDocumentLoaded   SessionState = "document_loaded"
	SessionStateAwaitingResponse SessionState = "awaiting_response"
)

// SessionSnapshot is a point-in-time copy of a session, safe to serialise and hand to clients
type SessionSnapshot struct {
	ID        string         `json:"id"`
	State     SessionState   `json:"state"`
	Document  *DocumentInfo  `json:"document,omitempty"`
	Messages  []Message      `json:"messages"`
	Pending   bool           `json:"pending"`
	Error     *AnalysisError `json:"error,omitempty"`
	Epoch     uint64         `json:"epoch"`    // Bumped on reset, answers from an older epoch are dropped
	Revision  uint64         `json:"revision"` // Bumped on every mutation
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
