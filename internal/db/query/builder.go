package query

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

// ErrEmptyPayload is returned when an UPDATE has no columns to set
var ErrEmptyPayload = errors.New("empty update payload")

// Builder accumulates the parts of a single-table statement. Every method
// returns a new Builder; a Builder is never modified after construction, so
// partially built queries can be shared freely.
type Builder struct {
	dialect    Dialect
	table      string
	predicates models.FilterSet
	order      models.OrderSpec
	limit      int
	offset     int
}

// New creates an empty builder for a table
func New(dialect Dialect, table string) *Builder {
	return &Builder{
		dialect: dialect,
		table:   table,
		limit:   -1,
		offset:  -1,
	}
}

func (b *Builder) clone() *Builder {
	c := *b
	c.predicates = append(models.FilterSet(nil), b.predicates...)
	c.order = append(models.OrderSpec(nil), b.order...)
	return &c
}

// Table returns the target table name
func (b *Builder) Table() string { return b.table }

// Dialect returns the SQL dialect the builder renders for
func (b *Builder) Dialect() Dialect { return b.dialect }

// Predicates returns the applied predicates in order
func (b *Builder) Predicates() models.FilterSet {
	return append(models.FilterSet(nil), b.predicates...)
}

// Order returns the applied sort keys in order
func (b *Builder) Order() models.OrderSpec {
	return append(models.OrderSpec(nil), b.order...)
}

// Where adds the anchor predicate
func (b *Builder) Where(column string, op models.FilterOperator, operand any) *Builder {
	return b.Apply(models.Predicate{Column: column, Operator: op, Operand: operand, Combinator: models.Where})
}

// AndWhere conjoins a predicate to the ones already applied
func (b *Builder) AndWhere(column string, op models.FilterOperator, operand any) *Builder {
	return b.Apply(models.Predicate{Column: column, Operator: op, Operand: operand, Combinator: models.AndWhere})
}

// Apply adds a predicate. Predicates whose operand does not fit the
// operator are ignored.
func (b *Builder) Apply(p models.Predicate) *Builder {
	if !p.Valid() {
		return b
	}
	c := b.clone()
	c.predicates = append(c.predicates, p)
	return c
}

// OrderBy appends sort keys
func (b *Builder) OrderBy(keys ...models.OrderKey) *Builder {
	c := b.clone()
	for _, k := range keys {
		if k.Column != "" {
			c.order = append(c.order, k)
		}
	}
	return c
}

// Limit caps the number of selected rows; negative clears it
func (b *Builder) Limit(n int) *Builder {
	c := b.clone()
	c.limit = n
	return c
}

// Offset skips rows; negative clears it
func (b *Builder) Offset(n int) *Builder {
	c := b.clone()
	c.offset = n
	return c
}

// SelectSQL renders SELECT * with the applied predicates, order and pagination
func (b *Builder) SelectSQL() (string, []any, error) {
	sel := b.dialect.Statements().Select("*").From(QuoteIdent(b.table))
	for _, cond := range conditions(b.dialect, b.predicates) {
		sel = sel.Where(cond)
	}

	if len(b.order) > 0 {
		keys := make([]string, len(b.order))
		for i, k := range b.order {
			keys[i] = QuoteIdent(k.Column)
			switch k.Direction {
			case models.Ascending:
				keys[i] += " ASC"
			case models.Descending:
				keys[i] += " DESC"
			}
		}
		sel = sel.OrderBy(keys...)
	}

	return render("select", b.dialect.Paginate(sel, b.limit, b.offset))
}

// UpdateSQL renders UPDATE ... SET payload WHERE predicates. Columns are set
// in payload order.
func (b *Builder) UpdateSQL(payload *jsonb.Object) (string, []any, error) {
	if payload.Len() == 0 {
		return "", nil, ErrEmptyPayload
	}

	upd := b.dialect.Statements().Update(QuoteIdent(b.table))
	payload.Range(func(column string, v jsonb.Value) bool {
		upd = upd.Set(QuoteIdent(column), argValue(v))
		return true
	})
	for _, cond := range conditions(b.dialect, b.predicates) {
		upd = upd.Where(cond)
	}

	return render("update", upd)
}

// DeleteSQL renders DELETE ... WHERE predicates
func (b *Builder) DeleteSQL() (string, []any, error) {
	del := b.dialect.Statements().Delete(QuoteIdent(b.table))
	for _, cond := range conditions(b.dialect, b.predicates) {
		del = del.Where(cond)
	}
	return render("delete", del)
}

// InsertSQL renders INSERT of a single row returning the generated key where
// the dialect supports it
func (b *Builder) InsertSQL(payload *jsonb.Object, pk string) (string, []any, error) {
	returning := b.dialect.Returning(pk)

	// squirrel needs at least one value
	if payload.Len() == 0 {
		sql := "INSERT INTO " + QuoteIdent(b.table) + " DEFAULT VALUES"
		if returning != "" {
			sql += " " + returning
		}
		return sql, nil, nil
	}

	ins := b.dialect.Statements().Insert(QuoteIdent(b.table))
	cols := make([]string, 0, payload.Len())
	vals := make([]any, 0, payload.Len())
	payload.Range(func(column string, v jsonb.Value) bool {
		cols = append(cols, QuoteIdent(column))
		vals = append(vals, argValue(v))
		return true
	})
	ins = ins.Columns(cols...).Values(vals...)
	if returning != "" {
		ins = ins.Suffix(returning)
	}
	return render("insert", ins)
}

func render(kind string, s sq.Sqlizer) (string, []any, error) {
	sql, args, err := s.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("render %s: %w", kind, err)
	}
	return sql, args, nil
}

// argValue converts a payload value into a driver argument. Nested lists and
// mappings are sent as JSON text.
func argValue(v jsonb.Value) any {
	switch v.Kind() {
	case jsonb.KindList, jsonb.KindObject:
		data, err := v.MarshalJSON()
		if err != nil {
			return nil
		}
		return string(data)
	default:
		return v.Interface()
	}
}
