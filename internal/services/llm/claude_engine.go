package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
)

// ClaudeEngine answers questions with the Anthropic Messages API, sending the PDF as a document block
type ClaudeEngine struct {
	config      common.ClaudeConfig
	credentials interfaces.CredentialSource
	limiter     *rate.Limiter
	httpClient  *http.Client
	logger      arbor.ILogger

	mu        sync.Mutex
	client    anthropic.Client
	clientKey string
}

var (
	_ interfaces.AnswerEngine = (*ClaudeEngine)(nil)
	_ interfaces.EngineInfo   = (*ClaudeEngine)(nil)
)

// NewClaudeEngine creates a Claude-backed engine
func NewClaudeEngine(config common.ClaudeConfig, credentials interfaces.CredentialSource, logger arbor.ILogger) *ClaudeEngine {
	logger.Debug().
		Str("model", config.Model).
		Int("max_tokens", config.MaxTokens).
		Float32("temperature", config.Temperature).
		Str("rate_limit", config.RateLimit).
		Msg("Claude engine configured")

	return &ClaudeEngine{
		config:      config,
		credentials: credentials,
		limiter:     newLimiter(common.ParseDurationOr(config.RateLimit, 0)),
		logger:      logger,
	}
}

// WithHTTPClient overrides the HTTP client used for API calls
func (e *ClaudeEngine) WithHTTPClient(c *http.Client) *ClaudeEngine {
	e.httpClient = c
	return e
}

func (e *ClaudeEngine) Provider() string { return string(common.LLMProviderClaude) }

func (e *ClaudeEngine) Model() string { return e.config.Model }

func (e *ClaudeEngine) AnswerQuestion(ctx context.Context, history []models.Message, doc *models.Document, question string) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("claude: no document supplied")
	}

	apiKey, err := e.credentials.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	client := e.clientFor(apiKey)

	if err := waitLimiter(ctx, e.limiter); err != nil {
		return "", err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.config.Model),
		MaxTokens: int64(e.config.MaxTokens),
		Messages:  toClaudeMessages(BuildTurns(history, doc, question), doc),
		System: []anthropic.TextBlockParam{
			{Text: SystemInstruction},
		},
		Temperature: anthropic.Float(float64(e.config.Temperature)),
	}
	if e.config.TopP > 0 {
		params.TopP = anthropic.Float(float64(e.config.TopP))
	}
	if e.config.TopK > 0 {
		params.TopK = anthropic.Int(int64(e.config.TopK))
	}

	start := time.Now()
	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("model", e.config.Model).
			Int("history", len(history)).
			Dur("elapsed", time.Since(start)).
			Msg("Claude request failed")
		return "", wrapClaudeError(err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text, placeholder := AnswerOrPlaceholder(b.String())
	if placeholder {
		e.logger.Warn().
			Str("model", e.config.Model).
			Str("stop_reason", string(resp.StopReason)).
			Msg("Claude returned no text, using placeholder answer")
	}

	e.logger.Debug().
		Str("model", e.config.Model).
		Int("answer_length", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Claude answer received")

	return text, nil
}

func (e *ClaudeEngine) clientFor(apiKey string) anthropic.Client {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.clientKey == apiKey {
		return e.client
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if e.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(e.config.BaseURL))
	}
	if e.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(e.httpClient))
	}

	e.client = anthropic.NewClient(opts...)
	e.clientKey = apiKey
	return e.client
}

// toClaudeMessages converts turns to Messages API params. The API requires the
// conversation to open with a user turn, so a leading assistant greeting is
// preceded by a short user turn naming the document.
func toClaudeMessages(turns []Turn, doc *models.Document) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns)+1)

	if len(turns) > 0 && turns[0].Role == TurnModel {
		messages = append(messages, anthropic.NewUserMessage(
			anthropic.NewTextBlock(fmt.Sprintf("I'm sharing the document %q.", doc.Name)),
		))
	}

	for _, turn := range turns {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			if p.IsInline() {
				blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
					Data: base64.StdEncoding.EncodeToString(p.Data),
				}))
				continue
			}
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
		}

		if turn.Role == TurnModel {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	return messages
}

func wrapClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return fmt.Errorf("claude: API key rejected (status %d): %w", apiErr.StatusCode, err)
		}
	}
	return fmt.Errorf("claude: messages request: %w", err)
}
