package query

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/rebeliceyang/tablerest/internal/models"
)

// conditions turns the predicate list into squirrel clauses. The list is
// flat: the anchor comes first and every later predicate is joined with AND
// by the statement builder.
func conditions(d Dialect, preds models.FilterSet) []sq.Sqlizer {
	out := make([]sq.Sqlizer, 0, len(preds))
	for _, p := range preds {
		out = append(out, condition(d, p))
	}
	return out
}

func condition(d Dialect, p models.Predicate) sq.Sqlizer {
	column := QuoteIdent(p.Column)

	switch p.Operator {
	case models.OpIsNull:
		return sq.Eq{column: nil}
	case models.OpIsNotNull:
		return sq.NotEq{column: nil}
	case models.OpEqual:
		return sq.Eq{column: p.Operand}
	case models.OpGreaterThan:
		return sq.Gt{column: p.Operand}
	case models.OpGreaterOrEqual:
		return sq.GtOrEq{column: p.Operand}
	case models.OpLessThan:
		return sq.Lt{column: p.Operand}
	case models.OpLessOrEqual:
		return sq.LtOrEq{column: p.Operand}
	case models.OpNot:
		// a nil operand renders IS NOT NULL
		return sq.NotEq{column: p.Operand}
	case models.OpLike:
		return sq.Like{column: p.Operand}
	case models.OpILike:
		return d.ILike(column, p.Operand)
	case models.OpExists:
		return d.KeyExists(column, p.Operand)
	case models.OpNotExists:
		return sq.Expr("NOT ?", d.KeyExists(column, p.Operand))
	case models.OpIn:
		return sq.Eq{column: p.Operand.([]any)}
	case models.OpNotIn:
		return sq.NotEq{column: p.Operand.([]any)}
	case models.OpBetween:
		pair := p.Operand.([2]any)
		return sq.Expr(column+" BETWEEN ? AND ?", pair[0], pair[1])
	case models.OpNotBetween:
		pair := p.Operand.([2]any)
		return sq.Expr(column+" NOT BETWEEN ? AND ?", pair[0], pair[1])
	default:
		// Unknown operators never pass Predicate.Valid; keep the clause neutral
		return sq.Expr("1 = 1")
	}
}
