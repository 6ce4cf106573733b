package interfaces

import (
	"context"

	"github.com/ternarybob/docinsight/internal/models"
)

// AnswerEngine answers a question about a document given the prior conversation.
// history holds every message before the new question, oldest first.
// Implementations never retry; a non-nil error is classified by the caller.
type AnswerEngine interface {
	AnswerQuestion(ctx context.Context, history []models.Message, doc *models.Document, question string) (string, error)
}

// EngineInfo is implemented by engines that can describe themselves for audit records
type EngineInfo interface {
	Provider() string
	Model() string
}
