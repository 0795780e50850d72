package connection

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rebeliceyang/tablerest/internal/db/query"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
)

// Executor runs rendered statements against one database
type Executor interface {
	// Dialect is the SQL dialect statements must be rendered in
	Dialect() query.Dialect
	// Query runs a statement returning rows. Columns keep their select order.
	Query(ctx context.Context, sql string, args ...any) ([]*jsonb.Object, error)
	// Execute runs a statement and reports the affected row count
	Execute(ctx context.Context, sql string, args ...any) (int64, error)
	// Insert runs an INSERT and returns the generated key, or nil when the
	// engine reports none
	Insert(ctx context.Context, sql string, args ...any) (any, error)
	Ping(ctx context.Context) error
	Close() error
}

// normalizeValue converts driver values into JSON friendly ones
func normalizeValue(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case []byte:
		if utf8.Valid(t) {
			return string(t)
		}
		return t
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}

func rowObject(columns []string, values []any) *jsonb.Object {
	row := jsonb.NewObject()
	for i, col := range columns {
		row.Set(col, jsonb.Of(normalizeValue(values[i])))
	}
	return row
}
