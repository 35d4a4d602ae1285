package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"

	plog "github.com/phuslu/log"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/handlers"
	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/models"
	"github.com/ternarybob/autovis/internal/services/analyzer"
	"github.com/ternarybob/autovis/internal/services/cleanup"
	"github.com/ternarybob/autovis/internal/services/copygen"
	"github.com/ternarybob/autovis/internal/services/events"
	"github.com/ternarybob/autovis/internal/services/heygen"
	"github.com/ternarybob/autovis/internal/services/pipeline"
	"github.com/ternarybob/autovis/internal/services/renderer"
	"github.com/ternarybob/autovis/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage and events
	JobStore     interfaces.JobStore
	EventService interfaces.EventService

	// Pipeline services
	AnalyzerService *analyzer.Service
	CopygenService  *copygen.Service
	RendererService *renderer.Service
	CleanupService  *cleanup.Service
	PipelineService *pipeline.Service

	// HTTP handlers
	APIHandler *handlers.APIHandler
	JobHandler *handlers.JobHandler
	WSHandler  *handlers.WebSocketHandler

	wsWriter *handlers.WebSocketWriter
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	store, err := storage.NewJobStore(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize job store: %w", err)
	}
	app.JobStore = store
	logger.Debug().
		Str("storage", cfg.Storage.Type).
		Msg("Job store initialized")

	app.EventService = events.NewService(logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, logger)

	if err := app.initLogFeed(); err != nil {
		return nil, fmt.Errorf("failed to initialize log feed: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if cfg.Cleanup.Enabled {
		if err := app.CleanupService.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start cleanup scheduler")
		}
	}

	logger.Info().
		Str("storage", cfg.Storage.Type).
		Str("uploads", cfg.Paths.Uploads).
		Str("outputs", cfg.Paths.Outputs).
		Msg("Application initialization complete")

	return app, nil
}

// initLogFeed wires job lifecycle events into the WebSocket log stream.
// Per-poll progress updates go out at debug level so the default feed
// only carries job completion and failure lines.
func (a *App) initLogFeed() error {
	wsWriter, err := handlers.NewWebSocketWriter(a.WSHandler, arbormodels.WriterConfiguration{
		TimeFormat: "15:04:05",
	}, &a.Config.WebSocket)
	if err != nil {
		return err
	}
	a.wsWriter = wsWriter

	feed := func(level plog.Level) interfaces.EventHandler {
		return func(ctx context.Context, event interfaces.Event) error {
			job, ok := event.Payload.(*models.Job)
			if !ok {
				return nil
			}
			entry := arbormodels.LogEvent{
				Timestamp: time.Now(),
				Level:     level,
				Message:   fmt.Sprintf("[%s] %s (%d%%)", shortID(job.ID), job.Step, job.Progress),
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			_, err = wsWriter.Write(data)
			return err
		}
	}

	a.EventService.Subscribe(interfaces.EventJobUpdated, feed(plog.DebugLevel))
	a.EventService.Subscribe(interfaces.EventJobCompleted, feed(plog.InfoLevel))
	a.EventService.Subscribe(interfaces.EventJobFailed, feed(plog.ErrorLevel))

	return nil
}

// initServices initializes the pipeline services in dependency order
func (a *App) initServices() error {
	cfg := a.Config

	a.AnalyzerService = analyzer.NewService(a.Logger, &cfg.Analyzer, cfg.Paths.Uploads)
	a.CopygenService = copygen.NewService(a.Logger, cfg.Copy.Seed)
	a.RendererService = renderer.NewService(a.Logger, &cfg.Renderer, cfg.Paths.Outputs)
	a.CleanupService = cleanup.NewService(a.Logger, &cfg.Cleanup, cfg.Paths.Uploads)

	pollInterval := common.DurationOr(cfg.Heygen.PollInterval, heygen.DefaultPollInterval)
	maxPolls := cfg.Heygen.MaxPolls
	if maxPolls <= 0 {
		maxPolls = heygen.DefaultMaxPolls
	}

	// The render client is created per job: the API key arrives with the
	// submission, not from config.
	clientFactory := func(apiKey string) interfaces.RenderClient {
		opts := []heygen.ClientOption{
			heygen.WithLogger(a.Logger),
			heygen.WithPollBounds(pollInterval, maxPolls),
			heygen.WithDownloadTimeout(common.DurationOr(cfg.Heygen.DownloadTimeout, heygen.DefaultDownloadTimeout)),
		}
		if cfg.Heygen.BaseURL != "" {
			opts = append(opts, heygen.WithBaseURL(cfg.Heygen.BaseURL))
		}
		if cfg.Heygen.UploadURL != "" {
			opts = append(opts, heygen.WithUploadURL(cfg.Heygen.UploadURL))
		}
		if cfg.Heygen.RateLimit > 0 {
			opts = append(opts, heygen.WithRateLimit(cfg.Heygen.RateLimit))
		}
		return heygen.NewClient(apiKey, opts...)
	}

	a.PipelineService = pipeline.NewService(
		a.Logger,
		a.JobStore,
		a.EventService,
		a.AnalyzerService,
		a.CopygenService,
		a.RendererService,
		clientFactory,
		cfg.Paths.Outputs,
		pollInterval,
	)

	return nil
}

// initHandlers initializes the HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.Logger, a.PipelineService, a.Config.Paths.Uploads, a.Config.Paths.Outputs)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.CleanupService != nil {
		a.CleanupService.Stop()
	}

	if a.wsWriter != nil {
		if err := a.wsWriter.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close WebSocket log writer")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.JobStore != nil {
		if err := a.JobStore.Close(); err != nil {
			return fmt.Errorf("failed to close job store: %w", err)
		}
		a.Logger.Info().Msg("Job store closed")
	}

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
