package history

import (
	"database/sql"
	_ "embed"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/tablerest/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Entry is a single recorded statement
type Entry struct {
	ID           int64     `json:"id"`
	Kind         string    `json:"kind"`
	Table        string    `json:"table"`
	Statement    string    `json:"statement"`
	ExecutedAt   time.Time `json:"executedAt"`
	DurationMs   int64     `json:"durationMs"`
	RowsAffected int64     `json:"rowsAffected"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error,omitempty"`
}

// Store persists executed statements in a SQLite database
type Store struct {
	db         *sql.DB
	maxEntries int
	logger     log.Logger
	now        func() time.Time
}

// NewStore opens (or creates) the history database at path. Only the newest
// maxEntries statements are kept; 0 keeps everything.
func NewStore(path string, maxEntries int, logger log.Logger) (*Store, error) {
	db, err := sql.Open(models.DriverSQLite, path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Create schema
	_, err = db.Exec(schemaSQL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, maxEntries: maxEntries, logger: logger, now: time.Now}, nil
}

// Add records a statement
func (s *Store) Add(stmt models.Statement) error {
	errMsg := ""
	if stmt.Err != nil {
		errMsg = stmt.Err.Error()
	}

	_, err := s.db.Exec(`
		INSERT INTO statement_history
		(kind, table_name, statement, executed_at, duration_ms, rows_affected, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(stmt.Kind),
		stmt.Table,
		stmt.SQL,
		s.now().UTC().Format(time.RFC3339Nano),
		stmt.Duration.Milliseconds(),
		stmt.RowsAffected,
		stmt.Err == nil,
		errMsg,
	)
	if err != nil {
		return err
	}

	if s.maxEntries > 0 {
		_, err = s.db.Exec(`
			DELETE FROM statement_history
			WHERE id <= (SELECT MAX(id) FROM statement_history) - ?`, s.maxEntries)
	}
	return err
}

// ObserveStatement records stmt, logging instead of returning failures
func (s *Store) ObserveStatement(stmt models.Statement) {
	if err := s.Add(stmt); err != nil {
		level.Warn(s.logger).Log("msg", "failed to record statement", "err", err)
	}
}

// GetRecent retrieves the most recent statements, newest first
func (s *Store) GetRecent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, table_name, statement, executed_at,
		       duration_ms, rows_affected, success, error_message
		FROM statement_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Search finds statements against table, newest first
func (s *Store) Search(table string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, table_name, statement, executed_at,
		       duration_ms, rows_affected, success, error_message
		FROM statement_history
		WHERE table_name = ?
		ORDER BY id DESC
		LIMIT ?`, table, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.Kind,
			&e.Table,
			&e.Statement,
			&executedAt,
			&e.DurationMs,
			&e.RowsAffected,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.ExecutedAt, _ = time.Parse(time.RFC3339Nano, executedAt)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
