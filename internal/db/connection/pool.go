package connection

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rebeliceyang/tablerest/internal/db/query"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

// Pool wraps pgxpool with our configuration
type Pool struct {
	pool   *pgxpool.Pool
	config models.ConnectionConfig
}

// NewPool creates a new connection pool
func NewPool(ctx context.Context, config models.ConnectionConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	poolConfig.MaxConns = 10
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	poolConfig.MinConns = min(max(config.MinConns, 0), poolConfig.MaxConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	if len(config.SearchPath) > 0 {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = searchPath(config.SearchPath)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{
		pool:   pool,
		config: config,
	}, nil
}

func (p *Pool) Dialect() query.Dialect { return query.Postgres }

// Close closes the connection pool
func (p *Pool) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Ping tests the connection
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Query executes a query
func (p *Pool) Query(ctx context.Context, sql string, args ...any) ([]*jsonb.Object, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columns[i] = fd.Name
	}

	results := []*jsonb.Object{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		results = append(results, rowObject(columns, values))
	}

	return results, rows.Err()
}

// Execute executes a statement without returning rows (INSERT, UPDATE, DELETE, CREATE, etc.)
func (p *Pool) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	result, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Insert expects sql to end in a RETURNING clause for the key column
func (p *Pool) Insert(ctx context.Context, sql string, args ...any) (any, error) {
	var id any
	err := p.pool.QueryRow(ctx, sql, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return normalizeValue(id), nil
}

// buildConnectionString creates a PostgreSQL connection URL
func buildConnectionString(config models.ConnectionConfig) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Path:     "/" + config.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if config.Password != "" {
		u.User = url.UserPassword(config.User, config.Password)
	} else if config.User != "" {
		u.User = url.User(config.User)
	}
	return u.String()
}

func searchPath(schemas []string) string {
	quoted := make([]string, len(schemas))
	for i, s := range schemas {
		quoted[i] = query.QuoteIdent(s)
	}
	return strings.Join(quoted, ", ")
}
