package filter

import (
	"errors"

	"github.com/rebeliceyang/tablerest/internal/db/query"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

// ErrInvalidFilterShape is returned when a filter is not a column -> condition mapping
var ErrInvalidFilterShape = errors.New("filter must be an object of column conditions")

// Compile turns a where mapping into predicates, in the mapping's key order.
//
// Each entry is either a scalar (equality) or a mapping naming an operator,
// e.g. {"age": {"gte": 18}}. Only the first recognised operator key of a
// mapping is used; unknown keys beside it are ignored. Entries that cannot be
// compiled (lists, null, mappings without a recognised operator, operands of
// the wrong shape) are skipped without error. The first compiled predicate
// is the anchor, the rest are AND-ed to it.
func Compile(raw jsonb.Value) (models.FilterSet, error) {
	obj, ok := raw.Object()
	if !ok {
		return nil, ErrInvalidFilterShape
	}

	var set models.FilterSet
	obj.Range(func(column string, cond jsonb.Value) bool {
		p, ok := compileEntry(column, cond)
		if !ok {
			return true
		}
		if len(set) == 0 {
			p.Combinator = models.Where
		} else {
			p.Combinator = models.AndWhere
		}
		set = append(set, p)
		return true
	})
	return set, nil
}

// Apply compiles raw and applies the predicates to qb. It returns the
// resulting builder and the number of predicates applied.
func Apply(raw jsonb.Value, qb *query.Builder) (*query.Builder, int, error) {
	set, err := Compile(raw)
	if err != nil {
		return qb, 0, err
	}

	applied := 0
	for _, p := range set {
		if applied == 0 {
			qb = qb.Where(p.Column, p.Operator, p.Operand)
		} else {
			qb = qb.AndWhere(p.Column, p.Operator, p.Operand)
		}
		applied++
	}
	return qb, applied, nil
}

func compileEntry(column string, cond jsonb.Value) (models.Predicate, bool) {
	if column == "" {
		return models.Predicate{}, false
	}

	if cond.IsScalar() {
		return models.Predicate{Column: column, Operator: models.OpEqual, Operand: cond.Interface()}, true
	}

	obj, ok := cond.Object()
	if !ok {
		return models.Predicate{}, false
	}

	key, rule, found := firstOperator(obj)
	if !found {
		return models.Predicate{}, false
	}

	value, _ := obj.Get(key)
	operand, ok := rule.operand(value)
	if !ok {
		return models.Predicate{}, false
	}

	p := models.Predicate{Column: column, Operator: rule.op, Operand: operand}
	if !p.Valid() {
		return models.Predicate{}, false
	}
	return p, true
}

// firstOperator returns the first key of obj, in key order, that names an
// operator
func firstOperator(obj *jsonb.Object) (string, operatorRule, bool) {
	var (
		key   string
		rule  operatorRule
		found bool
	)
	obj.Range(func(k string, _ jsonb.Value) bool {
		rule, found = operatorTable[k]
		key = k
		return !found
	})
	return key, rule, found
}
