package connection

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/rebeliceyang/tablerest/internal/models"
)

// Open connects to the database selected by config.Driver
func Open(ctx context.Context, config models.ConnectionConfig) (Executor, error) {
	switch models.NormalizeDriver(config.Driver) {
	case models.DriverPostgres:
		pool, err := NewPool(ctx, config)
		if err != nil {
			return nil, err
		}
		return pool, nil
	case models.DriverSQLite:
		db, err := NewSQLite(ctx, config)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported db driver. Driver=%s", config.Driver)
	}
}

// Migrate applies the up migrations found in dir. It is a no-op when the
// schema is already current.
func Migrate(config models.ConnectionConfig, dir string) error {
	databaseURL, err := migrationURL(config)
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func migrationURL(config models.ConnectionConfig) (string, error) {
	switch models.NormalizeDriver(config.Driver) {
	case models.DriverPostgres:
		u, err := url.Parse(buildConnectionString(config))
		if err != nil {
			return "", err
		}
		if len(config.SearchPath) > 0 {
			q := u.Query()
			q.Set("search_path", searchPath(config.SearchPath))
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	case models.DriverSQLite:
		if config.Filename == "" || config.Filename == ":memory:" {
			return "", fmt.Errorf("migrations need a sqlite database file")
		}
		return "sqlite3://" + config.Filename, nil
	default:
		return "", fmt.Errorf("unsupported db driver. Driver=%s", config.Driver)
	}
}
