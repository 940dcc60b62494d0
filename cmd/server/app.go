package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/task-api/internal/config"
	"github.com/phrazzld/task-api/internal/events"
	"github.com/phrazzld/task-api/internal/platform/postgres"
	"github.com/phrazzld/task-api/internal/platform/sqlite"
	"github.com/phrazzld/task-api/internal/ratelimit"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService

	eventEmitter *events.InMemoryEmitter

	authLimiter  ratelimit.Limiter
	closeLimiter func() error
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection is owned by the application from here on and is
// closed by cleanup.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth, auth.WithClockSkew(cfg.Auth.ClockSkew()))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes,
		"clock_skew", cfg.Auth.ClockSkew())

	switch cfg.Database.Driver {
	case driverSQLite:
		app.userStore = sqlite.NewSQLiteUserStore(db, logger)
		app.taskStore = sqlite.NewSQLiteTaskStore(db, logger)
	default:
		app.userStore = postgres.NewPostgresUserStore(db, logger)
		app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	}

	app.eventEmitter = events.NewInMemoryEmitter(logger)
	app.eventEmitter.Register(events.NewAuditLogHandler(logger))

	app.taskService, err = service.NewTaskService(
		service.NewTaskRepositoryAdapter(app.taskStore, db),
		logger,
		service.WithDefaultLimit(cfg.Pagination.DefaultLimit),
		service.WithMaxLimit(cfg.Pagination.MaxLimit),
		service.WithEmitter(app.eventEmitter),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.userService = service.NewUserService(
		app.userStore,
		db,
		app.jwtService,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		logger,
	)

	app.authLimiter, app.closeLimiter, err = ratelimit.NewFromConfig(ctx, cfg.RateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.closeLimiter != nil {
		if err := app.closeLimiter(); err != nil {
			app.logger.Error("Error closing rate limiter", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
