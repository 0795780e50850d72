package connection

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/tablerest/internal/db/query"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

// SQLite is an Executor over a database/sql handle using go-sqlite3
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database file named in config, or a private in-memory
// database for ":memory:"
func NewSQLite(ctx context.Context, config models.ConnectionConfig) (*SQLite, error) {
	filename := config.Filename
	if filename == "" {
		filename = ":memory:"
	}

	db, err := sql.Open(models.DriverSQLite, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Each connection to ":memory:" is a separate database
	if filename == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if config.MaxConns > 0 {
		db.SetMaxOpenConns(int(config.MaxConns))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Dialect() query.Dialect { return query.SQLite }

// DB returns the underlying handle
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Query(ctx context.Context, stmt string, args ...any) ([]*jsonb.Object, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []*jsonb.Object{}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		results = append(results, rowObject(columns, values))
	}

	return results, rows.Err()
}

func (s *SQLite) Execute(ctx context.Context, stmt string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Insert returns the rowid of the inserted row
func (s *SQLite) Insert(ctx context.Context, stmt string, args ...any) (any, error) {
	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return id, nil
}
