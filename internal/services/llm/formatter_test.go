package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/docinsight/internal/models"
)

func testDocument() *models.Document {
	return &models.Document{
		ID:        "doc_test",
		Name:      "report.pdf",
		MediaType: models.MediaTypePDF,
		Data:      []byte("%PDF-1.4 test document"),
		Size:      22,
	}
}

func TestBuildTurns_EmptyHistory(t *testing.T) {
	doc := testDocument()

	turns := BuildTurns(nil, doc, "What is the revenue?")

	require.Len(t, turns, 1)
	assert.Equal(t, TurnUser, turns[0].Role)
	require.Len(t, turns[0].Parts, 2)

	assert.True(t, turns[0].Parts[0].IsInline())
	assert.Equal(t, doc.Data, turns[0].Parts[0].Data)
	assert.Equal(t, models.MediaTypePDF, turns[0].Parts[0].MediaType)

	assert.False(t, turns[0].Parts[1].IsInline())
	assert.Equal(t, "Based ONLY on the provided document, answer the following question: What is the revenue?", turns[0].Parts[1].Text)
}

func TestBuildTurns_HistoryOrderAndRoles(t *testing.T) {
	now := time.Now()
	history := []models.Message{
		{Role: models.RoleAssistant, Text: "Perfect! I've loaded \"report.pdf\".", Timestamp: now},
		{Role: models.RoleUser, Text: "Who wrote it?", Timestamp: now},
		{Role: models.RoleAssistant, Text: "Jane Doe.", Timestamp: now},
	}

	turns := BuildTurns(history, testDocument(), "When?")

	require.Len(t, turns, 4)
	assert.Equal(t, TurnModel, turns[0].Role)
	assert.Equal(t, TurnUser, turns[1].Role)
	assert.Equal(t, TurnModel, turns[2].Role)
	assert.Equal(t, TurnUser, turns[3].Role)

	for i, msg := range history {
		require.Len(t, turns[i].Parts, 1, "history turns carry text only")
		assert.Equal(t, msg.Text, turns[i].Parts[0].Text)
		assert.False(t, turns[i].Parts[0].IsInline())
	}

	assert.True(t, turns[3].Parts[0].IsInline())
}

func TestBuildTurns_QuestionNotTrimmedOrEscaped(t *testing.T) {
	turns := BuildTurns(nil, testDocument(), "Is \"x\" > y?")
	assert.Equal(t, QuestionPrompt("Is \"x\" > y?"), turns[0].Parts[1].Text)
}

func TestAnswerOrPlaceholder(t *testing.T) {
	tests := []struct {
		in          string
		want        string
		placeholder bool
	}{
		{"An answer", "An answer", false},
		{"", models.PlaceholderAnswer, true},
		{"   \n", models.PlaceholderAnswer, true},
	}
	for _, tt := range tests {
		got, placeholder := AnswerOrPlaceholder(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.placeholder, placeholder)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind models.AnalysisErrorKind
		msg  string
	}{
		{"missing key", ErrMissingAPIKey, models.AnalysisErrorCredentials, models.CredentialsErrorMessage},
		{"provider key message", errors.New("Error 400, Message: API key not valid. Please pass a valid API key."), models.AnalysisErrorCredentials, models.CredentialsErrorMessage},
		{"network", errors.New("dial tcp: connection refused"), models.AnalysisErrorService, models.ServiceErrorMessage},
		{"lower case is not a match", errors.New("api key"), models.AnalysisErrorService, models.ServiceErrorMessage},
		{"nil", nil, models.AnalysisErrorService, models.ServiceErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.msg, got.Message)
		})
	}
}
