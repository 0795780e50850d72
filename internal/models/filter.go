package models

// FilterOperator represents a filter comparison operator
type FilterOperator int

const (
	OpEqual FilterOperator = iota
	OpIsNull
	OpIsNotNull
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpNot
	OpLike
	OpILike
	OpExists
	OpNotExists
	OpIn
	OpNotIn
	OpBetween
	OpNotBetween
)

// Arity describes the operand shape an operator accepts
type Arity int

const (
	ArityNone Arity = iota // no operand
	ArityOne               // a single scalar (nil allowed for OpNot)
	ArityList              // []any with at least one element
	ArityPair              // [2]any
)

var operatorNames = map[FilterOperator]string{
	OpEqual:          "equals",
	OpIsNull:         "isNull",
	OpIsNotNull:      "isNotNull",
	OpGreaterThan:    "gt",
	OpGreaterOrEqual: "gte",
	OpLessThan:       "lt",
	OpLessOrEqual:    "lte",
	OpNot:            "not",
	OpLike:           "like",
	OpILike:          "iLike",
	OpExists:         "exists",
	OpNotExists:      "notExists",
	OpIn:             "in",
	OpNotIn:          "notIn",
	OpBetween:        "between",
	OpNotBetween:     "notBetween",
}

// String returns the operator key used in filter query strings.
// OpEqual has no key of its own and reports "equals".
func (op FilterOperator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "unknown"
}

// Arity returns the operand shape of the operator
func (op FilterOperator) Arity() Arity {
	switch op {
	case OpIsNull, OpIsNotNull:
		return ArityNone
	case OpIn, OpNotIn:
		return ArityList
	case OpBetween, OpNotBetween:
		return ArityPair
	default:
		return ArityOne
	}
}

// Combinator says how a predicate joins the ones before it
type Combinator int

const (
	// Where marks the anchor predicate
	Where Combinator = iota
	// AndWhere marks a predicate conjoined to the anchor
	AndWhere
)

func (c Combinator) String() string {
	if c == Where {
		return "where"
	}
	return "andWhere"
}

// Predicate is one compiled filter expression.
//
// Operand is nil for ArityNone (and for OpNot against NULL), a scalar for
// ArityOne, []any for ArityList and [2]any for ArityPair.
type Predicate struct {
	Column     string
	Operator   FilterOperator
	Operand    any
	Combinator Combinator
}

// Valid reports whether the operand shape matches the operator's arity
func (p Predicate) Valid() bool {
	if _, known := operatorNames[p.Operator]; !known || p.Column == "" {
		return false
	}
	switch p.Operator.Arity() {
	case ArityNone:
		return true
	case ArityList:
		list, ok := p.Operand.([]any)
		return ok && len(list) > 0
	case ArityPair:
		_, ok := p.Operand.([2]any)
		return ok
	default:
		switch p.Operand.(type) {
		case []any, [2]any, map[string]any:
			return false
		}
		return p.Operand != nil || p.Operator == OpNot
	}
}

// FilterSet is an ordered, AND-combined sequence of predicates. The first
// entry is the anchor.
type FilterSet []Predicate

// Columns returns the filtered column names in order
func (s FilterSet) Columns() []string {
	cols := make([]string, len(s))
	for i, p := range s {
		cols[i] = p.Column
	}
	return cols
}

// Direction is a sort direction
type Direction int

const (
	Unspecified Direction = iota
	Ascending
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return ""
	}
}

// OrderKey is a single column of an ORDER BY
type OrderKey struct {
	Column    string
	Direction Direction
}

// OrderSpec is an ordered list of sort keys; the first is the primary key
type OrderSpec []OrderKey
