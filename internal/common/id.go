package common

import (
	"github.com/google/uuid"
)

// NewSessionID generates a conversation session ID: sess_<uuid>
func NewSessionID() string {
	return "sess_" + uuid.New().String()
}

// NewDocumentID generates an uploaded document ID: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}
