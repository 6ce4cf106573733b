package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
)

// GeminiEngine answers questions with the Gemini API, sending the PDF inline on every call
type GeminiEngine struct {
	config      common.GeminiConfig
	credentials interfaces.CredentialSource
	limiter     *rate.Limiter
	httpClient  *http.Client
	logger      arbor.ILogger

	mu        sync.Mutex
	client    *genai.Client
	clientKey string
}

var (
	_ interfaces.AnswerEngine = (*GeminiEngine)(nil)
	_ interfaces.EngineInfo   = (*GeminiEngine)(nil)
)

// NewGeminiEngine creates a Gemini-backed engine. The API key is resolved from
// credentials on each call so a key added after startup is picked up.
func NewGeminiEngine(config common.GeminiConfig, credentials interfaces.CredentialSource, logger arbor.ILogger) *GeminiEngine {
	e := &GeminiEngine{
		config:      config,
		credentials: credentials,
		limiter:     newLimiter(common.ParseDurationOr(config.RateLimit, 0)),
		logger:      logger,
	}

	logger.Debug().
		Str("model", config.Model).
		Float32("temperature", config.Temperature).
		Float32("top_p", config.TopP).
		Float32("top_k", config.TopK).
		Str("rate_limit", config.RateLimit).
		Msg("Gemini engine configured")

	return e
}

// WithHTTPClient overrides the HTTP client used for API calls
func (e *GeminiEngine) WithHTTPClient(c *http.Client) *GeminiEngine {
	e.httpClient = c
	return e
}

func (e *GeminiEngine) Provider() string { return string(common.LLMProviderGemini) }

func (e *GeminiEngine) Model() string { return e.config.Model }

// AnswerQuestion sends the history, the document and the wrapped question in one request.
// There is no retry; failures are returned for the caller to classify.
func (e *GeminiEngine) AnswerQuestion(ctx context.Context, history []models.Message, doc *models.Document, question string) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("gemini: no document supplied")
	}

	apiKey, err := e.credentials.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	client, err := e.clientFor(ctx, apiKey)
	if err != nil {
		return "", err
	}

	if err := waitLimiter(ctx, e.limiter); err != nil {
		return "", err
	}

	contents := toGeminiContents(BuildTurns(history, doc, question))
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(e.config.Temperature),
		TopP:              genai.Ptr(e.config.TopP),
		TopK:              genai.Ptr(e.config.TopK),
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, e.config.Model, contents, config)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("model", e.config.Model).
			Int("history", len(history)).
			Dur("elapsed", time.Since(start)).
			Msg("Gemini request failed")
		return "", wrapGeminiError(err)
	}

	text, placeholder := AnswerOrPlaceholder(resp.Text())
	if placeholder {
		e.logger.Warn().
			Str("model", e.config.Model).
			Msg("Gemini returned no text, using placeholder answer")
	}

	e.logger.Debug().
		Str("model", e.config.Model).
		Int("history", len(history)).
		Int("answer_length", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Gemini answer received")

	return text, nil
}

func (e *GeminiEngine) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil && e.clientKey == apiKey {
		return e.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: e.httpClient,
	}
	if e.config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: e.config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	e.client = client
	e.clientKey = apiKey
	return client, nil
}

func toGeminiContents(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := genai.RoleUser
		if turn.Role == TurnModel {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			if p.IsInline() {
				parts = append(parts, genai.NewPartFromBytes(p.Data, p.MediaType))
			} else {
				parts = append(parts, genai.NewPartFromText(p.Text))
			}
		}

		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

// wrapGeminiError makes rejected credentials recognisable by the "API key" marker
func wrapGeminiError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("gemini: API key rejected (status %d): %w", code, err)
	}
	return fmt.Errorf("gemini: generate content: %w", err)
}
