package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
	"github.com/ternarybob/docinsight/internal/services/llm"
)

var (
	ErrEmptyQuestion  = errors.New("question is empty")
	ErrNoDocument     = errors.New("no document loaded")
	ErrRequestPending = errors.New("a request is already in progress")
)

// Dependencies are shared by every controller a Manager creates.
// Events, Audit and Renderer are optional.
type Dependencies struct {
	Engine       interfaces.AnswerEngine
	Events       interfaces.EventService
	Audit        interfaces.ExchangeStorage
	Renderer     interfaces.MarkdownRenderer
	Clock        interfaces.Clock
	LogQuestions bool // store question text in audit records
}

// Controller owns one conversation: the loaded document, the ordered history,
// the pending flag and the last analysis error.
type Controller struct {
	id     string
	deps   Dependencies
	logger arbor.ILogger

	mu        sync.Mutex
	doc       *models.Document
	messages  []models.Message
	pending   bool
	lastErr   *models.AnalysisError
	epoch     uint64
	revision  uint64
	createdAt time.Time
	updatedAt time.Time
}

// NewController creates an empty conversation
func NewController(id string, deps Dependencies, logger arbor.ILogger) *Controller {
	now := deps.Clock.Now()
	return &Controller{
		id:        id,
		deps:      deps,
		logger:    logger,
		messages:  []models.Message{},
		createdAt: now,
		updatedAt: now,
	}
}

func (c *Controller) ID() string { return c.id }

// SelectDocument replaces the current document, clears history and error, and greets the user
func (c *Controller) SelectDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return ErrNoDocument
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrRequestPending
	}

	c.doc = doc
	c.lastErr = nil
	c.epoch++
	c.messages = []models.Message{c.assistantMessage(greeting(doc.Name))}
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info().
		Str("session_id", c.id).
		Str("doc_id", doc.ID).
		Str("name", doc.Name).
		Msg("Document selected")

	c.publish(ctx, interfaces.EventDocumentSelected, snap)
	return nil
}

// SubmitQuestion asks the engine about the loaded document and blocks until it answers.
// Rejections return a sentinel error and leave state untouched. Inference failures are
// not returned; they are stored on the session and visible in the snapshot.
func (c *Controller) SubmitQuestion(ctx context.Context, text string) error {
	question := strings.TrimSpace(text)
	if question == "" {
		return ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return ErrNoDocument
	}
	if c.pending {
		c.mu.Unlock()
		return ErrRequestPending
	}

	history := models.CloneMessages(c.messages)
	doc := c.doc
	epoch := c.epoch

	c.messages = append(c.messages, models.Message{
		Role:      models.RoleUser,
		Text:      question,
		Timestamp: c.deps.Clock.Now(),
	})
	c.lastErr = nil
	c.pending = true
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(ctx, interfaces.EventQuestionSubmitted, snap)

	c.logger.Debug().
		Str("session_id", c.id).
		Int("history", len(history)).
		Int("question_len", len(question)).
		Msg("Submitting question")

	// the call outlives a disconnected client
	callCtx := context.WithoutCancel(ctx)
	start := c.deps.Clock.Now()
	answer, err := c.askEngine(callCtx, history, doc, question)
	duration := c.deps.Clock.Now().Sub(start)

	placeholder := false
	if err == nil {
		answer, placeholder = llm.AnswerOrPlaceholder(answer)
		placeholder = placeholder || answer == models.PlaceholderAnswer
	}

	c.mu.Lock()
	c.pending = false
	discarded := epoch != c.epoch
	var analysisErr *models.AnalysisError
	switch {
	case discarded:
		// session was reset while waiting; the result belongs to a conversation that no longer exists
	case err != nil:
		analysisErr = llm.ClassifyError(err)
		c.lastErr = analysisErr
	default:
		c.messages = append(c.messages, c.assistantMessage(answer))
	}
	c.touchLocked()
	snap = c.snapshotLocked()
	c.mu.Unlock()

	record := &models.ExchangeRecord{
		SessionID:      c.id,
		DocumentName:   doc.Name,
		DocumentSize:   doc.Size,
		QuestionLength: len(question),
		HistoryLength:  len(history),
		Success:        err == nil,
		Placeholder:    placeholder,
		Discarded:      discarded,
		DurationMS:     duration.Milliseconds(),
		Timestamp:      c.deps.Clock.Now(),
	}
	if c.deps.LogQuestions {
		record.Question = question
	}

	switch {
	case discarded:
		c.logger.Info().Str("session_id", c.id).Msg("Session reset while waiting, answer discarded")
		if err != nil {
			record.ErrorKind = llm.ClassifyError(err).Kind
			c.publish(ctx, interfaces.EventAnalysisFailed, snap)
		} else {
			c.publish(ctx, interfaces.EventAnswerReceived, snap)
		}
	case err != nil:
		c.logger.Error().
			Err(err).
			Str("session_id", c.id).
			Str("kind", string(analysisErr.Kind)).
			Dur("duration", duration).
			Msg("Document analysis failed")
		record.ErrorKind = analysisErr.Kind
		c.publish(ctx, interfaces.EventAnalysisFailed, snap)
	default:
		if placeholder {
			c.logger.Warn().Str("session_id", c.id).Msg("Model returned no text, using placeholder answer")
		}
		c.logger.Info().
			Str("session_id", c.id).
			Int("answer_len", len(answer)).
			Dur("duration", duration).
			Msg("Answer received")
		record.AnswerLength = len(answer)
		c.publish(ctx, interfaces.EventAnswerReceived, snap)
	}

	c.audit(callCtx, record)
	return nil
}

// askEngine reports an engine panic as an ordinary error
func (c *Controller) askEngine(ctx context.Context, history []models.Message, doc *models.Document, question string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("session_id", c.id).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Answer engine panicked")
			answer, err = "", fmt.Errorf("answer engine panic: %v", r)
		}
	}()
	return c.deps.Engine.AnswerQuestion(ctx, history, doc, question)
}

// Reset returns the session to empty from any state. An in-flight request keeps the
// session pending until it returns, and its result is dropped.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	c.doc = nil
	c.messages = []models.Message{}
	c.lastErr = nil
	c.epoch++
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info().Str("session_id", c.id).Bool("pending", snap.Pending).Msg("Session reset")
	c.publish(ctx, interfaces.EventSessionReset, snap)
}

// DismissError clears the error banner only
func (c *Controller) DismissError(ctx context.Context) {
	c.mu.Lock()
	if c.lastErr == nil {
		c.mu.Unlock()
		return
	}
	c.lastErr = nil
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(ctx, interfaces.EventErrorDismissed, snap)
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() models.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Document returns the loaded document, or nil
func (c *Controller) Document() *models.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// idleSince reports the last mutation time and whether a request is in flight
func (c *Controller) idleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt, c.pending
}

func (c *Controller) snapshotLocked() models.SessionSnapshot {
	state := models.SessionStateEmpty
	switch {
	case c.pending && c.doc != nil:
		state = models.SessionStateAwaitingResponse
	case c.doc != nil:
		state = models.SessionStateDocumentLoaded
	}

	var lastErr *models.AnalysisError
	if c.lastErr != nil {
		e := *c.lastErr
		lastErr = &e
	}

	return models.SessionSnapshot{
		ID:        c.id,
		State:     state,
		Document:  c.doc.Info(),
		Messages:  models.CloneMessages(c.messages),
		Pending:   c.pending,
		Error:     lastErr,
		Epoch:     c.epoch,
		Revision:  c.revision,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
}

func (c *Controller) touchLocked() {
	c.revision++
	c.updatedAt = c.deps.Clock.Now()
}

func (c *Controller) assistantMessage(text string) models.Message {
	msg := models.Message{
		Role:      models.RoleAssistant,
		Text:      text,
		Timestamp: c.deps.Clock.Now(),
	}
	if c.deps.Renderer != nil {
		html, err := c.deps.Renderer.ToHTML(text)
		if err != nil {
			c.logger.Warn().Err(err).Str("session_id", c.id).Msg("Failed to render answer markdown")
		} else {
			msg.HTML = html
		}
	}
	return msg
}

func (c *Controller) publish(ctx context.Context, eventType interfaces.EventType, snap models.SessionSnapshot) {
	if c.deps.Events == nil {
		return
	}
	event := interfaces.Event{
		Type:    eventType,
		Payload: models.SessionEventPayload{SessionID: c.id, Snapshot: snap},
	}
	if err := c.deps.Events.Publish(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Warn().Err(err).Str("event", string(eventType)).Msg("Failed to publish session event")
	}
}

func (c *Controller) audit(ctx context.Context, record *models.ExchangeRecord) {
	if c.deps.Audit == nil {
		return
	}
	if info, ok := c.deps.Engine.(interfaces.EngineInfo); ok {
		record.Provider = info.Provider()
		record.Model = info.Model()
	}
	if err := c.deps.Audit.SaveExchange(ctx, record); err != nil {
		c.logger.Warn().Err(err).Str("session_id", c.id).Msg("Failed to record exchange")
	}
}

func greeting(name string) string {
	return fmt.Sprintf("Perfect! I've loaded \"%s\". You can now ask me any questions about its content.", name)
}
