package jsonb

import (
	"encoding/json"
	"strconv"
)

// Kind identifies the shape held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

// String returns the JSON type name of the kind (object, array, string, number, boolean, null)
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindList:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a loosely typed request value: a scalar, a list or an ordered mapping.
// The zero Value is JSON null.
type Value struct {
	kind Kind
	str  string
	num  json.Number
	b    bool
	list []Value
	obj  *Object
}

// Null returns the null value
func Null() Value { return Value{} }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a JSON number literal
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// Int wraps an integer
func Int(i int64) Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List wraps a list of values
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// FromObject wraps an ordered mapping
func FromObject(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether the value is a string, number or boolean.
// Null is not a scalar.
func (v Value) IsScalar() bool {
	switch v.kind {
	case KindString, KindNumber, KindBool:
		return true
	default:
		return false
	}
}

// Str returns the string payload and whether the value is a string
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// List returns the list items and whether the value is a list
func (v Value) List() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// Object returns the mapping and whether the value is a mapping
func (v Value) Object() (*Object, bool) {
	return v.obj, v.kind == KindObject
}

// Interface converts the value into plain Go values suitable as SQL arguments.
// Numbers become int64 when integral and float64 otherwise; mappings become
// map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if i, err := v.num.Int64(); err == nil {
			return i
		}
		if f, err := v.num.Float64(); err == nil {
			return f
		}
		return v.num.String()
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		v.obj.Range(func(key string, val Value) bool {
			out[key] = val.Interface()
			return true
		})
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes the value keeping mapping key order
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		return json.Marshal(v.list)
	case KindObject:
		return v.obj.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes JSON keeping mapping key order
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Decode(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Of converts a plain Go value (as produced by database drivers or tests) into a Value.
// Unknown types are stored as their JSON encoding when possible.
func Of(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Object:
		return FromObject(t)
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return Number(json.Number(strconv.FormatFloat(float64(t), 'f', -1, 32)))
	case float64:
		return Number(json.Number(strconv.FormatFloat(t, 'f', -1, 64)))
	case json.Number:
		return Number(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = Of(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return List(items...)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return Null()
		}
		parsed, err := Decode(data)
		if err != nil {
			return Null()
		}
		return parsed
	}
}
