package models

import "time"

// ExchangeRecord is the audit entry for one question/answer round trip.
// Document bytes are never recorded; the question text only when enabled in config.
type ExchangeRecord struct {
	ID             uint64            `json:"id" badgerhold:"key"`
	SessionID      string            `json:"session_id" badgerhold:"index"`
	DocumentName   string            `json:"document_name"`
	DocumentSize   int64             `json:"document_size"`
	Provider       string            `json:"provider"`
	Model          string            `json:"model"`
	Question       string            `json:"question,omitempty"`
	QuestionLength int               `json:"question_length"`
	AnswerLength   int               `json:"answer_length"`
	HistoryLength  int               `json:"history_length"` // Prior messages sent with the question
	Success        bool              `json:"success"`
	ErrorKind      AnalysisErrorKind `json:"error_kind,omitempty"`
	Placeholder    bool              `json:"placeholder"` // Model returned no text and the fallback answer was used
	Discarded      bool              `json:"discarded"`   // Session was reset before the answer arrived
	DurationMS     int64             `json:"duration_ms"`
	Timestamp      time.Time         `json:"timestamp"`
}
