package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/docinsight/internal/models"
)

// SystemInstruction is sent with every question regardless of provider
const SystemInstruction = "You are an expert document analyzer. Use the provided PDF context to answer questions accurately and concisely. If the information is not in the document, state that you cannot find it. Use markdown for formatting."

const questionTemplate = "Based ONLY on the provided document, answer the following question: %s"

// TurnRole is the provider-neutral author of a turn
type TurnRole string

const (
	TurnUser  TurnRole = "user"
	TurnModel TurnRole = "model"
)

// Part is either text or inline binary data
type Part struct {
	Text      string
	Data      []byte
	MediaType string
}

// IsInline reports whether the part carries binary data
func (p Part) IsInline() bool {
	return p.Data != nil
}

// Turn is one entry of the request sent to a model
type Turn struct {
	Role  TurnRole
	Parts []Part
}

// QuestionPrompt wraps the user's question in the grounding instruction
func QuestionPrompt(question string) string {
	return fmt.Sprintf(questionTemplate, question)
}

// BuildTurns lays out a request: one text turn per prior message in order, then a
// final user turn holding the whole document followed by the wrapped question.
// The document is attached only to the final turn, never to history.
func BuildTurns(history []models.Message, doc *models.Document, question string) []Turn {
	turns := make([]Turn, 0, len(history)+1)

	for _, msg := range history {
		role := TurnUser
		if msg.Role == models.RoleAssistant {
			role = TurnModel
		}
		turns = append(turns, Turn{Role: role, Parts: []Part{{Text: msg.Text}}})
	}

	turns = append(turns, Turn{
		Role: TurnUser,
		Parts: []Part{
			{Data: doc.Data, MediaType: doc.MediaType},
			{Text: QuestionPrompt(question)},
		},
	})

	return turns
}

// AnswerOrPlaceholder substitutes the placeholder for blank model output.
// The second return is true when the substitution happened.
func AnswerOrPlaceholder(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return models.PlaceholderAnswer, true
	}
	return text, false
}
