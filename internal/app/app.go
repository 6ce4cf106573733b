package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/handlers"
	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/services/conversation"
	"github.com/ternarybob/docinsight/internal/services/documents"
	"github.com/ternarybob/docinsight/internal/services/events"
	"github.com/ternarybob/docinsight/internal/services/llm"
	"github.com/ternarybob/docinsight/internal/services/pdf"
	"github.com/ternarybob/docinsight/internal/services/transcript"
	"github.com/ternarybob/docinsight/internal/storage"
	"github.com/ternarybob/docinsight/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager *badger.Manager

	// Services
	EventService     interfaces.EventService
	AnswerEngine     interfaces.AnswerEngine
	ExchangeStorage  interfaces.ExchangeStorage // nil when audit is disabled
	Intake           *documents.Intake
	Transcripts      *transcript.Service
	SessionManager   *conversation.Manager
	MarkdownRenderer interfaces.MarkdownRenderer

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	PageHandler    *handlers.PageHandler
	SessionHandler *handlers.SessionHandler
	AuditHandler   *handlers.AuditHandler
	WSHandler      *handlers.WebSocketHandler
}

// New wires every component from config. Call Close when done.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	logger.Info().
		Str("provider", string(cfg.LLM.DefaultProvider)).
		Bool("audit_enabled", cfg.Audit.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens Badger when the audit log is enabled
func (a *App) initDatabase() error {
	if !a.Config.Audit.Enabled {
		a.Logger.Info().Msg("Audit log disabled, skipping storage")
		return nil
	}

	manager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.StorageManager = manager
	a.ExchangeStorage = manager.ExchangeStorage()
	return nil
}

func (a *App) initServices() error {
	clock := common.SystemClock{}

	a.EventService = events.NewService(a.Logger)

	engine, err := llm.NewAnswerEngine(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create answer engine: %w", err)
	}
	a.AnswerEngine = engine

	a.Intake = documents.NewIntake(pdf.NewInspector(a.Logger), clock, a.Logger)
	a.Transcripts = transcript.NewService(pdf.NewService(a.Logger), clock, a.Logger)
	a.MarkdownRenderer = transcript.NewHTMLRenderer()

	a.SessionManager = conversation.NewManager(conversation.Dependencies{
		Engine:       a.AnswerEngine,
		Events:       a.EventService,
		Audit:        a.ExchangeStorage,
		Renderer:     a.MarkdownRenderer,
		Clock:        clock,
		LogQuestions: a.Config.Audit.LogQuestions,
	}, a.Config.Session, a.Config.Audit, a.Logger)

	if err := a.SessionManager.Start(); err != nil {
		return err
	}

	return nil
}

func (a *App) initHandlers() error {
	page, err := handlers.NewPageHandler(a.AnswerEngine, a.Config.Upload.AdvisoryLimitMB, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load chat page: %w", err)
	}
	a.PageHandler = page

	a.APIHandler = handlers.NewAPIHandler(a.SessionManager, a.AnswerEngine, a.Logger)
	a.SessionHandler = handlers.NewSessionHandler(a.SessionManager, a.Intake, a.Transcripts, a.Config.Server.MaxRequestBytes, a.Logger)
	a.AuditHandler = handlers.NewAuditHandler(a.ExchangeStorage, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.SessionManager, a.EventService, a.Logger)
	return nil
}

// Close stops background work and releases storage
func (a *App) Close() error {
	if a.SessionManager != nil {
		a.SessionManager.Stop()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}

// NewSession is a convenience for single-session entry points such as the MCP server
func (a *App) NewSession(ctx context.Context) *conversation.Controller {
	return a.SessionManager.Create(ctx)
}
