package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/generation"
	"github.com/phrazzld/taskflow-api/internal/jobs"
	"github.com/phrazzld/taskflow-api/internal/platform/filestore"
	"github.com/phrazzld/taskflow-api/internal/platform/gemini"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/platform/quotes"
	"github.com/phrazzld/taskflow-api/internal/realtime"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
	"go.uber.org/multierr"
)

// shutdownTimeout bounds each graceful shutdown step.
const shutdownTimeout = 10 * time.Second

// application holds the shared dependencies so they can be wired once and
// released in order on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore

	jwtService auth.JWTService
	passwords  *auth.Bcrypt

	taskService       service.TaskService
	attachmentService service.AttachmentService
	quoteService      service.QuoteService

	// Realtime delivery
	jobRunner     *jobs.Runner
	registry      *realtime.Registry
	authenticator *realtime.Authenticator
	broadcaster   *realtime.Broadcaster
	transport     realtime.TransportConfig
}

// newApplication wires every component on top of an established database
// connection. The job runner is started before it returns.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))
	app.passwords = auth.NewBcrypt(cfg.Auth.BcryptCost)

	userStore := postgres.NewPostgresUserStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	attachmentStore := postgres.NewPostgresAttachmentStore(db, logger)
	app.userStore = userStore

	runnerCfg := jobs.DefaultRunnerConfig()
	runnerCfg.WorkerCount = cfg.Events.WorkerCount
	runnerCfg.QueueSize = cfg.Events.QueueSize
	app.jobRunner = jobs.NewRunner(runnerCfg, logger)

	app.registry = realtime.NewRegistry(logger)
	app.broadcaster = realtime.NewBroadcaster(app.registry, app.jobRunner, logger)
	app.authenticator = realtime.NewAuthenticator(app.jwtService, userStore, logger)
	app.transport = realtime.TransportConfig{
		WriteTimeout:    cfg.Realtime.WriteTimeout(),
		MaxMessageBytes: int64(cfg.Realtime.MaxMessageBytes),
		AllowedOrigins:  cfg.Realtime.AllowedOrigins,
	}

	app.taskService, err = service.NewTaskService(db, taskStore, app.broadcaster, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	files, err := filestore.NewOnDisk(cfg.Uploads.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	app.attachmentService, err = service.NewAttachmentService(
		db,
		taskStore,
		attachmentStore,
		files,
		cfg.Uploads.MaxSizeBytes,
		app.broadcaster,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment service: %w", err)
	}

	generator, err := newQuoteGenerator(ctx, cfg.Quote, logger)
	if err != nil {
		return nil, err
	}
	app.quoteService = service.NewQuoteService(quotes.NewClient(cfg.Quote, logger), generator, logger)

	app.jobRunner.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// newQuoteGenerator returns nil when no Gemini key is configured; the quote
// service then falls back to its built-in list only.
func newQuoteGenerator(ctx context.Context, cfg config.QuoteConfig, logger *slog.Logger) (generation.QuoteGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Info("Gemini API key not set, generated quote fallback disabled")
		return nil, nil
	}
	g, err := gemini.NewGeminiGenerator(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize quote generator: %w", err)
	}
	logger.Info("Quote generator initialized", slog.String("model", cfg.GeminiModel))
	return g, nil
}

// shutdown releases resources after the HTTP server has stopped: pending
// deliveries are drained, live sessions are closed, then the pool is closed.
func (app *application) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if stopErr := app.jobRunner.Stop(ctx); stopErr != nil {
		err = multierr.Append(err, fmt.Errorf("job runner stop: %w", stopErr))
	}

	closed := app.registry.CloseAll(realtime.CloseGoingAway, "server shutting down")
	app.logger.Info("Realtime sessions closed", slog.Int("sessions", closed))

	if closeErr := app.db.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("database close: %w", closeErr))
	}

	app.logger.Info("Application shutdown completed")
	return err
}
