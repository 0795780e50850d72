// Package app wires configuration, storage and the HTTP server together.
package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/rebeliceyang/tablerest/internal/api"
	"github.com/rebeliceyang/tablerest/internal/config"
	"github.com/rebeliceyang/tablerest/internal/db/connection"
	"github.com/rebeliceyang/tablerest/internal/history"
	"github.com/rebeliceyang/tablerest/internal/metrics"
	"github.com/rebeliceyang/tablerest/internal/store"
)

// App is the running service
type App struct {
	config  *config.Config
	logger  log.Logger
	db      connection.Executor
	history *history.Store
	server  *api.Server
}

// New connects to the database and builds the server. Migrations run first
// when db.migrations_path is set.
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn := cfg.Connection()
	if cfg.DB.MigrationsPath != "" {
		if err := connection.Migrate(conn, cfg.DB.MigrationsPath); err != nil {
			return nil, err
		}
		level.Info(logger).Log("msg", "migrations applied", "path", cfg.DB.MigrationsPath)
	}

	db, err := connection.Open(ctx, conn)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: logger, db: db}

	var observers []store.Observer
	if cfg.History.Enabled {
		a.history, err = history.NewStore(cfg.History.Path, cfg.History.MaxEntries, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to open statement history: %w", err)
		}
		observers = append(observers, a.history)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		observers = append(observers, m)
	}

	a.server = api.NewServer(api.Options{
		Store:         store.New(db, cfg.DB.PrimaryKey, logger, observers...),
		History:       a.history,
		Metrics:       m,
		Logger:        logger,
		Auth:          cfg.Auth.Basic,
		RateLimit:     cfg.Server.RateLimit,
		RateBurst:     cfg.Server.RateBurst,
		LegacySuccess: cfg.Response.LegacySuccess,
	})

	level.Info(logger).Log("msg", "database connected", "driver", conn.Driver)
	return a, nil
}

// Server returns the HTTP server
func (a *App) Server() *api.Server { return a.server }

// Run serves until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx, ":"+strconv.Itoa(a.config.Port))
}

// Close releases the database and history handles
func (a *App) Close() error {
	var firstErr error
	if a.history != nil {
		firstErr = a.history.Close()
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
