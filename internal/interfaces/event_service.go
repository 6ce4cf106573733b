package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventSessionCreated    EventType = "session_created"
	EventDocumentSelected  EventType = "document_selected"
	EventQuestionSubmitted EventType = "question_submitted"
	EventAnswerReceived    EventType = "answer_received"
	EventAnalysisFailed    EventType = "analysis_failed"
	EventSessionReset      EventType = "session_reset"
	EventErrorDismissed    EventType = "error_dismissed"
	EventSessionExpired    EventType = "session_expired"
)

// SessionEventTypes lists every event a session stream forwards to clients
var SessionEventTypes = []EventType{
	EventSessionCreated,
	EventDocumentSelected,
	EventQuestionSubmitted,
	EventAnswerReceived,
	EventAnalysisFailed,
	EventSessionReset,
	EventErrorDismissed,
	EventSessionExpired,
}

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) (Subscription, error)

	// Unsubscribe removes a handler previously returned by Subscribe
	Unsubscribe(sub Subscription) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}

// Subscription identifies one registered handler
type Subscription struct {
	EventType EventType
	ID        uint64
}
