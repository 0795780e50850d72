package filter

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

// Decompile writes predicates back in where-mapping form, using the same
// operator keys and comma-joined operands that Compile accepts. Compiling the
// result yields the same predicates.
func Decompile(set models.FilterSet) *jsonb.Object {
	out := jsonb.NewObject()
	for _, p := range set {
		if p.Operator == models.OpEqual {
			out.Set(p.Column, jsonb.Of(p.Operand))
			continue
		}

		key, ok := operatorKeys[p.Operator]
		if !ok {
			continue
		}
		out.Set(p.Column, jsonb.FromObject(jsonb.ObjectOf(key, operandValue(p))))
	}
	return out
}

func operandValue(p models.Predicate) jsonb.Value {
	switch operand := p.Operand.(type) {
	case nil:
		if p.Operator == models.OpNot {
			return jsonb.String("null")
		}
		return jsonb.Bool(true)
	case []any:
		return jsonb.String(joinOperands(operand))
	case [2]any:
		return jsonb.String(joinOperands(operand[:]))
	default:
		return jsonb.Of(operand)
	}
}

func joinOperands(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
