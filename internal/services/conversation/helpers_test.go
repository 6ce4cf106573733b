package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
)

// stepClock advances one second on every read
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engineCall struct {
	history  []models.Message
	doc      *models.Document
	question string
	ctxErr   error
}

// fakeEngine answers from a queue, optionally blocking until released
type fakeEngine struct {
	mu      sync.Mutex
	calls   []engineCall
	answer  string
	err     error
	block   chan struct{}
	started chan struct{}
	panics  any
}

func (e *fakeEngine) AnswerQuestion(ctx context.Context, history []models.Message, doc *models.Document, question string) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, engineCall{history: history, doc: doc, question: question})
	block, started := e.block, e.started
	answer, err, panics := e.answer, e.err, e.panics
	e.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	e.mu.Lock()
	e.calls[len(e.calls)-1].ctxErr = ctx.Err()
	e.mu.Unlock()
	if panics != nil {
		panic(panics)
	}
	return answer, err
}

func (e *fakeEngine) Provider() string { return "fake" }
func (e *fakeEngine) Model() string    { return "fake-1" }

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *fakeEngine) lastCall() engineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[len(e.calls)-1]
}

// recordingEvents delivers synchronously and keeps every event
type recordingEvents struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *recordingEvents) Subscribe(interfaces.EventType, interfaces.EventHandler) (interfaces.Subscription, error) {
	return interfaces.Subscription{}, nil
}
func (r *recordingEvents) Unsubscribe(interfaces.Subscription) error { return nil }
func (r *recordingEvents) PublishSync(ctx context.Context, e interfaces.Event) error {
	return r.Publish(ctx, e)
}
func (r *recordingEvents) Close() error { return nil }

func (r *recordingEvents) Publish(_ context.Context, e interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) types() []interfaces.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interfaces.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// memoryAudit is an in-memory ExchangeStorage with retention support
type memoryAudit struct {
	mu      sync.Mutex
	records []models.ExchangeRecord
	purged  []time.Time
}

func (a *memoryAudit) SaveExchange(_ context.Context, rec *models.ExchangeRecord) error {
	if rec == nil {
		return errors.New("nil record")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	rec.ID = uint64(len(a.records) + 1)
	a.records = append(a.records, *rec)
	return nil
}

func (a *memoryAudit) ListRecent(_ context.Context, limit int) ([]models.ExchangeRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.ExchangeRecord, len(a.records))
	copy(out, a.records)
	return out, nil
}

func (a *memoryAudit) ListBySession(ctx context.Context, _ string, limit int) ([]models.ExchangeRecord, error) {
	return a.ListRecent(ctx, limit)
}

func (a *memoryAudit) Count(context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records), nil
}

func (a *memoryAudit) PurgeOlderThan(_ context.Context, cutoff time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.purged = append(a.purged, cutoff)
	return nil
}

func (a *memoryAudit) all() []models.ExchangeRecord {
	out, _ := a.ListRecent(context.Background(), 0)
	return out
}

type paragraphRenderer struct{}

func (paragraphRenderer) ToHTML(md string) (string, error) { return "<p>" + md + "</p>", nil }

type testEnv struct {
	engine *fakeEngine
	events *recordingEvents
	audit  *memoryAudit
	clock  *stepClock
	deps   Dependencies
}

func newTestEnv() *testEnv {
	env := &testEnv{
		engine: &fakeEngine{answer: "The total is 42."},
		events: &recordingEvents{},
		audit:  &memoryAudit{},
		clock:  newStepClock(),
	}
	env.deps = Dependencies{
		Engine:   env.engine,
		Events:   env.events,
		Audit:    env.audit,
		Renderer: paragraphRenderer{},
		Clock:    env.clock,
	}
	return env
}

func (e *testEnv) controller() *Controller {
	return NewController("sess_test", e.deps, arbor.NewLogger())
}

func testDoc(name string) *models.Document {
	return &models.Document{
		ID:        "doc_" + name,
		Name:      name,
		MediaType: models.MediaTypePDF,
		Size:      2048,
		PageCount: 2,
		Data:      []byte("%PDF-1.4 " + name),
	}
}

func newTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}
