package filter

import (
	"strings"

	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

// operandFunc converts the raw operand of an operator key into the predicate
// operand. ok=false rejects the entry.
type operandFunc func(v jsonb.Value) (operand any, ok bool)

type operatorRule struct {
	op      models.FilterOperator
	operand operandFunc
}

// operatorTable maps the operator keys accepted in where[col][key] to their
// operator and operand conversion
var operatorTable = map[string]operatorRule{
	"isNull":     {models.OpIsNull, noOperand},
	"isNotNull":  {models.OpIsNotNull, noOperand},
	"gt":         {models.OpGreaterThan, scalarOperand},
	"gte":        {models.OpGreaterOrEqual, scalarOperand},
	"lt":         {models.OpLessThan, scalarOperand},
	"lte":        {models.OpLessOrEqual, scalarOperand},
	"not":        {models.OpNot, nullableTextOperand},
	"like":       {models.OpLike, textOperand},
	"iLike":      {models.OpILike, textOperand},
	"exists":     {models.OpExists, textOperand},
	"notExists":  {models.OpNotExists, textOperand},
	"in":         {models.OpIn, listOperand},
	"notIn":      {models.OpNotIn, listOperand},
	"between":    {models.OpBetween, pairOperand},
	"notBetween": {models.OpNotBetween, pairOperand},
}

// operatorKeys is the reverse of operatorTable
var operatorKeys = func() map[models.FilterOperator]string {
	keys := make(map[models.FilterOperator]string, len(operatorTable))
	for key, rule := range operatorTable {
		keys[rule.op] = key
	}
	return keys
}()

func noOperand(jsonb.Value) (any, bool) {
	return nil, true
}

func scalarOperand(v jsonb.Value) (any, bool) {
	if !v.IsScalar() {
		return nil, false
	}
	return v.Interface(), true
}

func textOperand(v jsonb.Value) (any, bool) {
	s, ok := v.Str()
	if !ok {
		return nil, false
	}
	return s, true
}

// nullableTextOperand treats the literal "null" as SQL NULL
func nullableTextOperand(v jsonb.Value) (any, bool) {
	s, ok := v.Str()
	if !ok {
		return nil, false
	}
	if s == "null" {
		return nil, true
	}
	return s, true
}

func listOperand(v jsonb.Value) (any, bool) {
	s, ok := v.Str()
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	list := make([]any, len(parts))
	for i, p := range parts {
		list[i] = p
	}
	return list, true
}

func pairOperand(v jsonb.Value) (any, bool) {
	s, ok := v.Str()
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, false
	}
	return [2]any{parts[0], parts[1]}, true
}
