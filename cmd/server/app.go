package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	"github.com/phrazzld/scry-study/internal/reminder"
	"github.com/phrazzld/scry-study/internal/service"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	deckStore store.DeckStore
	cardStore store.CardStore

	jwtService   auth.JWTService
	srsService   srs.Service
	studyService service.StudyService

	eventEmitter *events.InMemoryEventEmitter
	scheduler    *reminder.Scheduler
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
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

	params, err := srs.NewParams(cfg.SRS.ParamsConfig())
	if err != nil {
		return nil, fmt.Errorf("invalid scheduling parameters: %w", err)
	}
	app.srsService, err = srs.NewService(params, srs.SystemClock)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.deckStore = postgres.NewPostgresDeckStore(db, logger)
	app.cardStore = postgres.NewPostgresCardStore(db, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLoggingHandler(logger))

	app.studyService, err = service.NewStudyService(
		app.deckStore,
		app.cardStore,
		app.srsService,
		app.eventEmitter,
		service.StudyOptions{MaxCards: cfg.Session.MaxCards, DB: db},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}

	app.scheduler, err = app.newScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder scheduler: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// newScheduler returns nil when neither reminders nor idle-session expiry are
// configured.
func (app *application) newScheduler() (*reminder.Scheduler, error) {
	idle := time.Duration(app.config.Session.IdleTimeoutMinutes) * time.Minute
	if !app.config.Reminder.Enabled && idle <= 0 {
		return nil, nil
	}

	var notifier reminder.Notifier
	if app.config.Reminder.Enabled {
		notifier = reminder.NewEventNotifier(app.eventEmitter)
	}

	return reminder.New(app.deckStore, notifier, reminder.Options{
		Interval:    time.Duration(app.config.Reminder.IntervalMinutes) * time.Minute,
		IdleTimeout: idle,
		Sweeper:     app.studyService,
	}, app.logger)
}

// Run starts the background scheduler and the HTTP server, blocking until
// the server shuts down.
func (app *application) Run(ctx context.Context) error {
	if app.scheduler != nil {
		if err := app.scheduler.Start(ctx); err != nil {
			app.cleanup()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
