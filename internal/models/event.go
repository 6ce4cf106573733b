package models

// SessionEventPayload is published on every session transition
type SessionEventPayload struct {
	SessionID string          `json:"session_id"`
	Snapshot  SessionSnapshot `json:"snapshot"`
}
