package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/phrazzld/sleepwatch/internal/analysis"
	"github.com/phrazzld/sleepwatch/internal/config"
	"github.com/phrazzld/sleepwatch/internal/events"
	"github.com/phrazzld/sleepwatch/internal/platform/gemini"
	"github.com/phrazzld/sleepwatch/internal/platform/mqtt"
	"github.com/phrazzld/sleepwatch/internal/platform/sqlite"
	"github.com/phrazzld/sleepwatch/internal/sensor"
	"github.com/phrazzld/sleepwatch/internal/service"
	"github.com/phrazzld/sleepwatch/internal/task"
	"github.com/phrazzld/sleepwatch/internal/tracking"
)

// shutdownTimeout bounds HTTP shutdown and draining of queued analyses.
const shutdownTimeout = 10 * time.Second

// application holds the shared dependencies so they can be released in
// order on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db         *sql.DB
	mqttClient paho.Client
	resub      *mqtt.Resubscriber

	analyzer      *analysis.Analyzer
	taskRunner    *task.TaskRunner
	eventEmitter  *events.InMemoryEventEmitter
	eventHistory  *events.History
	reportService service.ReportService

	sampler    *sensor.Sampler
	controller *tracking.Controller
	deviceFeed *mqtt.DeviceFeed
}

// newApplication creates the application with every dependency connected.
// Anything already opened is released if a later step fails.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{
		config: cfg,
		logger: logger,
	}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	if err = app.setupStore(ctx); err != nil {
		return nil, err
	}
	if err = app.setupAnalysis(ctx); err != nil {
		return nil, err
	}

	app.resub = mqtt.NewResubscriber(logger)
	app.mqttClient, err = mqtt.Connect(ctx, cfg.MQTT, logger, app.resub.OnConnect)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	if err = app.setupEvents(); err != nil {
		return nil, err
	}

	reports := sqlite.NewReportStore(app.db, logger)
	app.reportService, err = service.NewReportService(
		reports,
		app.analyzer,
		app.taskRunner,
		app.eventEmitter,
		service.ReportServiceConfig{RetainFailedSessions: cfg.Store.RetainFailedSessions},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report service: %w", err)
	}

	if err = app.setupTracking(); err != nil {
		return nil, err
	}

	logger.Info("Application initialized successfully",
		"analysis_enabled", app.analyzer.Enabled(),
		"retain_failed_sessions", cfg.Store.RetainFailedSessions)
	return app, nil
}

func (app *application) setupStore(ctx context.Context) error {
	db, err := sqlite.Open(ctx, app.config.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open report database: %w", err)
	}
	app.db = db

	if err := sqlite.Migrate(ctx, db, app.logger); err != nil {
		return fmt.Errorf("failed to migrate report database: %w", err)
	}
	app.logger.Info("Report database ready", "path", app.config.Store.Path)
	return nil
}

// setupAnalysis builds the analyzer and starts the background runner that
// scores finished sessions. Without an API key the analyzer is disabled
// and every session is stored unscored.
func (app *application) setupAnalysis(ctx context.Context) error {
	var scorer analysis.Scorer
	if app.config.LLM.GeminiAPIKey != "" {
		s, err := gemini.NewScorer(ctx, app.logger.With("component", "gemini_scorer"), app.config.LLM)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini scorer: %w", err)
		}
		scorer = s
		app.logger.Info("Gemini scorer initialized", "model", app.config.LLM.ModelName)
	}

	analyzer, err := analysis.NewAnalyzer(scorer, analysis.Config{
		Timeout:            app.config.LLM.Timeout(),
		PromptTemplatePath: app.config.LLM.PromptTemplatePath,
	}, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	app.analyzer = analyzer

	runner, err := task.NewTaskRunner(task.RunnerConfigFrom(app.config.Task), app.logger)
	if err != nil {
		return fmt.Errorf("failed to create task runner: %w", err)
	}
	runner.SetErrorHandler(func(t task.Task, err error) {
		app.logger.Error("background task failed", "task_id", t.ID(), "task_type", t.Type(), "error", err)
	})
	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	app.taskRunner = runner
	return nil
}

func (app *application) setupEvents() error {
	app.eventEmitter = events.NewInMemoryEventEmitter(app.logger)
	app.eventHistory = events.NewHistory(events.DefaultHistorySize)

	publisher, err := mqtt.NewEventPublisher(app.mqttClient, app.config.MQTT, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}

	app.eventEmitter.RegisterHandler(events.NewLogHandler(app.logger))
	app.eventEmitter.RegisterHandler(app.eventHistory)
	app.eventEmitter.RegisterHandler(publisher)
	return nil
}

func (app *application) setupTracking() error {
	provider, err := mqtt.NewProvider(app.mqttClient, app.config.MQTT, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create sensor provider: %w", err)
	}

	app.resub.Register(provider.Resubscribe)

	app.sampler, err = sensor.NewSampler(provider, app.config.Tracking.SampleInterval(), app.logger)
	if err != nil {
		return fmt.Errorf("failed to create sensor sampler: %w", err)
	}

	controllerCfg, err := tracking.ConfigFrom(app.config.Tracking)
	if err != nil {
		return fmt.Errorf("invalid tracking configuration: %w", err)
	}
	location, err := app.config.Tracking.Location()
	if err != nil {
		return fmt.Errorf("invalid tracking timezone: %w", err)
	}

	app.controller, err = tracking.NewController(
		controllerCfg,
		app.sampler,
		app.reportService,
		app.eventEmitter,
		tracking.SystemClock{Location: location},
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create tracking controller: %w", err)
	}

	app.deviceFeed, err = mqtt.NewDeviceFeed(app.mqttClient, app.config.MQTT, app.controller, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create device feed: %w", err)
	}
	app.resub.Register(app.deviceFeed.Resubscribe)
	return nil
}

// Run starts the tracking loop, the device feed and the HTTP server, and
// blocks until ctx ends or the server fails.
func (app *application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controllerErr := make(chan error, 1)
	go func() {
		controllerErr <- app.controller.Run(ctx)
	}()

	if err := app.deviceFeed.Start(ctx); err != nil {
		cancel()
		<-controllerErr
		return fmt.Errorf("failed to start device feed: %w", err)
	}

	router := newRouter(app.logger, app.controller, app.reportService, app.eventHistory)
	serverErr := app.startHTTPServer(ctx, router)

	// The controller discards an open session when its context ends.
	cancel()
	if err := <-controllerErr; err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error("tracking controller stopped with error", "error", err)
	}

	if serverErr != nil {
		return fmt.Errorf("server error: %w", serverErr)
	}
	return nil
}

// cleanup releases resources in reverse order of acquisition. Queued
// analyses are drained before the database is closed.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if app.deviceFeed != nil {
		if err := app.deviceFeed.Stop(ctx); err != nil {
			app.logger.Warn("Error stopping device feed", "error", err)
		}
	}

	if app.taskRunner != nil {
		if err := app.taskRunner.Stop(ctx); err != nil {
			app.logger.Error("Error draining analysis tasks", "error", err)
		}
	}

	if app.mqttClient != nil {
		mqtt.Disconnect(app.mqttClient)
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
