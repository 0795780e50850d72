package query

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/rebeliceyang/tablerest/internal/models"
)

// Dialect captures the SQL differences between the supported engines
type Dialect interface {
	Name() string
	// Statements returns a statement builder using the engine's bind parameters
	Statements() sq.StatementBuilderType
	// ILike renders a case-insensitive pattern match
	ILike(column string, pattern any) sq.Sqlizer
	// KeyExists renders a test for a top-level key in a JSON column
	KeyExists(column string, key any) sq.Sqlizer
	// Paginate applies limit and offset; negative values mean "unset"
	Paginate(sel sq.SelectBuilder, limit, offset int) sq.SelectBuilder
	// Returning renders the clause that makes INSERT return the generated key,
	// or "" when the engine reports it out of band
	Returning(pk string) string
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// DialectFor returns the dialect for a configured driver name
func DialectFor(driver string) (Dialect, error) {
	switch models.NormalizeDriver(driver) {
	case models.DriverPostgres:
		return Postgres, nil
	case models.DriverSQLite:
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported db driver: %q", driver)
	}
}

// QuoteIdent quotes a possibly schema-qualified identifier ("public.users"
// becomes "public"."users"). Embedded quotes are doubled.
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if part == "*" {
			continue
		}
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return models.DriverPostgres }

func (postgresDialect) Statements() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (postgresDialect) ILike(column string, pattern any) sq.Sqlizer {
	return sq.ILike{column: pattern}
}

// jsonb_exists is the function form of the ? operator, which would clash
// with placeholder rewriting
func (postgresDialect) KeyExists(column string, key any) sq.Sqlizer {
	return sq.Expr("jsonb_exists("+column+"::jsonb, ?)", key)
}

func (postgresDialect) Paginate(sel sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit >= 0 {
		sel = sel.Limit(uint64(limit))
	}
	if offset >= 0 {
		sel = sel.Offset(uint64(offset))
	}
	return sel
}

func (postgresDialect) Returning(pk string) string {
	return "RETURNING " + QuoteIdent(pk)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return models.DriverSQLite }

func (sqliteDialect) Statements() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func (sqliteDialect) ILike(column string, pattern any) sq.Sqlizer {
	return sq.Expr("lower("+column+") LIKE lower(?)", pattern)
}

func (sqliteDialect) KeyExists(column string, key any) sq.Sqlizer {
	return sq.Expr("EXISTS (SELECT 1 FROM json_each("+column+") WHERE json_each.key = ?)", key)
}

// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded
func (sqliteDialect) Paginate(sel sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	switch {
	case limit >= 0:
		sel = sel.Limit(uint64(limit))
		if offset >= 0 {
			sel = sel.Offset(uint64(offset))
		}
	case offset >= 0:
		sel = sel.Suffix("LIMIT -1 OFFSET " + strconv.Itoa(offset))
	}
	return sel
}

func (sqliteDialect) Returning(string) string { return "" }
