package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/models"
)

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// recordingServer answers every request with status/body and keeps the last request
type recordingServer struct {
	*httptest.Server
	mu      sync.Mutex
	path    string
	headers http.Header
	body    []byte
	calls   int
}

func newRecordingServer(t *testing.T, status int, body string) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.path = r.URL.Path
		rs.headers = r.Header.Clone()
		rs.body = data
		rs.calls++
		rs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) snapshot() (path string, headers http.Header, calls int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.path, rs.headers, rs.calls
}

func (rs *recordingServer) callCount() int {
	_, _, calls := rs.snapshot()
	return calls
}

func (rs *recordingServer) lastBody(t *testing.T, into interface{}) {
	t.Helper()
	rs.mu.Lock()
	defer rs.mu.Unlock()
	require.NoError(t, json.Unmarshal(rs.body, into))
}

func testHistory() []models.Message {
	return []models.Message{
		{Role: models.RoleAssistant, Text: "Perfect! I've loaded \"report.pdf\". You can now ask me any questions about its content."},
		{Role: models.RoleUser, Text: "Who wrote it?"},
		{Role: models.RoleAssistant, Text: "Jane Doe."},
	}
}

type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MimeType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
	SystemInstruction struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
		TopP        float64 `json:"topP"`
		TopK        float64 `json:"topK"`
	} `json:"generationConfig"`
}

func geminiConfig(baseURL string) common.GeminiConfig {
	config := common.NewDefaultConfig().Gemini
	config.BaseURL = baseURL
	return config
}

const geminiOK = `{"candidates":[{"content":{"role":"model","parts":[{"text":"The author is Jane Doe."}]},"finishReason":"STOP"}]}`

func TestGeminiEngine_SendsHistoryDocumentAndSettings(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, geminiOK)
	engine := NewGeminiEngine(geminiConfig(srv.URL), StaticCredentials("test-key"), testLogger())

	answer, err := engine.AnswerQuestion(context.Background(), testHistory(), testDocument(), "When was it written?")
	require.NoError(t, err)
	assert.Equal(t, "The author is Jane Doe.", answer)

	path, headers, _ := srv.snapshot()
	assert.True(t, strings.HasSuffix(path, "gemini-3-pro-preview:generateContent"), path)
	assert.Equal(t, "test-key", headers.Get("x-goog-api-key"))

	var req geminiRequest
	srv.lastBody(t, &req)

	require.Len(t, req.Contents, 4)
	assert.Equal(t, "model", req.Contents[0].Role)
	assert.Equal(t, "user", req.Contents[1].Role)
	assert.Equal(t, "Who wrote it?", req.Contents[1].Parts[0].Text)
	assert.Equal(t, "model", req.Contents[2].Role)

	final := req.Contents[3]
	assert.Equal(t, "user", final.Role)
	require.Len(t, final.Parts, 2)
	require.NotNil(t, final.Parts[0].InlineData)
	assert.Equal(t, "application/pdf", final.Parts[0].InlineData.MimeType)
	assert.NotEmpty(t, final.Parts[0].InlineData.Data)
	assert.Equal(t, "Based ONLY on the provided document, answer the following question: When was it written?", final.Parts[1].Text)

	require.NotEmpty(t, req.SystemInstruction.Parts)
	assert.Equal(t, SystemInstruction, req.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.2, req.GenerationConfig.Temperature, 1e-6)
	assert.InDelta(t, 0.8, req.GenerationConfig.TopP, 1e-6)
	assert.InDelta(t, 40, req.GenerationConfig.TopK, 1e-6)
}

func TestGeminiEngine_EmptyTextUsesPlaceholder(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]},"finishReason":"STOP"}]}`)
	engine := NewGeminiEngine(geminiConfig(srv.URL), StaticCredentials("test-key"), testLogger())

	answer, err := engine.AnswerQuestion(context.Background(), nil, testDocument(), "Anything?")
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderAnswer, answer)
}

func TestGeminiEngine_InvalidKeyIsCredentialsError(t *testing.T) {
	srv := newRecordingServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
	engine := NewGeminiEngine(geminiConfig(srv.URL), StaticCredentials("bad-key"), testLogger())

	_, err := engine.AnswerQuestion(context.Background(), nil, testDocument(), "Q")
	require.Error(t, err)
	assert.Equal(t, models.AnalysisErrorCredentials, ClassifyError(err).Kind)
	assert.Equal(t, 1, srv.callCount(), "no retry")
}

func TestGeminiEngine_ServerErrorIsServiceError(t *testing.T) {
	srv := newRecordingServer(t, http.StatusInternalServerError,
		`{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`)
	engine := NewGeminiEngine(geminiConfig(srv.URL), StaticCredentials("test-key"), testLogger())

	_, err := engine.AnswerQuestion(context.Background(), nil, testDocument(), "Q")
	require.Error(t, err)
	assert.Equal(t, models.AnalysisErrorService, ClassifyError(err).Kind)
	assert.Equal(t, 1, srv.callCount(), "no retry")
}

func TestGeminiEngine_MissingKeyNeverCallsAPI(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, geminiOK)
	engine := NewGeminiEngine(geminiConfig(srv.URL), StaticCredentials(""), testLogger())

	_, err := engine.AnswerQuestion(context.Background(), nil, testDocument(), "Q")
	require.Error(t, err)
	assert.Equal(t, models.AnalysisErrorCredentials, ClassifyError(err).Kind)
	assert.Equal(t, 0, srv.callCount())
}

type claudeRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type   string `json:"type"`
			Text   string `json:"text"`
			Source *struct {
				Type      string `json:"type"`
				MediaType string `json:"media_type"`
				Data      string `json:"data"`
			} `json:"source"`
		} `json:"content"`
	} `json:"messages"`
}

const claudeOK = `{"id":"msg_01","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[{"type":"text","text":"It was written in 2021."}],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":5}}`

func claudeConfig(baseURL string) common.ClaudeConfig {
	config := common.NewDefaultConfig().Claude
	config.BaseURL = baseURL
	return config
}

func TestClaudeEngine_SendsDocumentBlock(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, claudeOK)
	engine := NewClaudeEngine(claudeConfig(srv.URL), StaticCredentials("sk-test"), testLogger())

	doc := testDocument()
	answer, err := engine.AnswerQuestion(context.Background(), testHistory(), doc, "When was it written?")
	require.NoError(t, err)
	assert.Equal(t, "It was written in 2021.", answer)

	path, headers, _ := srv.snapshot()
	assert.Equal(t, "/v1/messages", path)
	assert.Equal(t, "sk-test", headers.Get("x-api-key"))

	var req claudeRequest
	srv.lastBody(t, &req)

	assert.Equal(t, "claude-sonnet-4-5", req.Model)
	require.Len(t, req.System, 1)
	assert.Equal(t, SystemInstruction, req.System[0].Text)
	assert.InDelta(t, 0.2, req.Temperature, 1e-6)

	// opening user turn, then greeting, question, answer, final question
	require.Len(t, req.Messages, 5)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content[0].Text, "report.pdf")
	assert.Equal(t, "assistant", req.Messages[1].Role)
	assert.Equal(t, "user", req.Messages[2].Role)
	assert.Equal(t, "assistant", req.Messages[3].Role)

	final := req.Messages[4]
	assert.Equal(t, "user", final.Role)
	require.Len(t, final.Content, 2)
	assert.Equal(t, "document", final.Content[0].Type)
	require.NotNil(t, final.Content[0].Source)
	assert.Equal(t, "base64", final.Content[0].Source.Type)
	assert.Equal(t, "application/pdf", final.Content[0].Source.MediaType)
	assert.Equal(t, doc.Base64(), final.Content[0].Source.Data)
	assert.Equal(t, "text", final.Content[1].Type)
	assert.Equal(t, QuestionPrompt("When was it written?"), final.Content[1].Text)
}

func TestClaudeEngine_UnauthorizedIsCredentialsError(t *testing.T) {
	srv := newRecordingServer(t, http.StatusUnauthorized,
		`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	engine := NewClaudeEngine(claudeConfig(srv.URL), StaticCredentials("sk-bad"), testLogger())

	_, err := engine.AnswerQuestion(context.Background(), nil, testDocument(), "Q")
	require.Error(t, err)
	assert.Equal(t, models.AnalysisErrorCredentials, ClassifyError(err).Kind)
	assert.Equal(t, 1, srv.callCount(), "retries are disabled")
}

func TestClaudeEngine_OverloadedIsServiceError(t *testing.T) {
	srv := newRecordingServer(t, http.StatusInternalServerError,
		`{"type":"error","error":{"type":"api_error","message":"Internal server error"}}`)
	engine := NewClaudeEngine(claudeConfig(srv.URL), StaticCredentials("sk-test"), testLogger())

	_, err := engine.AnswerQuestion(context.Background(), nil, testDocument(), "Q")
	require.Error(t, err)
	assert.Equal(t, models.AnalysisErrorService, ClassifyError(err).Kind)
	assert.Equal(t, 1, srv.callCount(), "retries are disabled")
}

func TestClaudeEngine_NoTextUsesPlaceholder(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK,
		`{"id":"msg_02","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":0}}`)
	engine := NewClaudeEngine(claudeConfig(srv.URL), StaticCredentials("sk-test"), testLogger())

	answer, err := engine.AnswerQuestion(context.Background(), nil, testDocument(), "Q")
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderAnswer, answer)
}

func TestEngineInfo(t *testing.T) {
	g := NewGeminiEngine(geminiConfig(""), StaticCredentials("k"), testLogger())
	c := NewClaudeEngine(claudeConfig(""), StaticCredentials("k"), testLogger())

	assert.Equal(t, "gemini", g.Provider())
	assert.Equal(t, "gemini-3-pro-preview", g.Model())
	assert.Equal(t, "claude", c.Provider())
	assert.Equal(t, "claude-sonnet-4-5", c.Model())
}
