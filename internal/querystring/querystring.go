// Package querystring decodes URL query strings written in bracket notation
// (where[age][gt]=18&orderBy[]=name) into nested, order-preserving values.
//
// Plain keys decode to strings, repeated keys to lists, key[] appends to a
// list, key[n] addresses a list position and key[name] a mapping entry. A
// top-level value that is inline JSON (where={"age":{"gt":18}}) can be
// expanded with Expand.
package querystring

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rebeliceyang/tablerest/internal/jsonb"
)

// maxListIndex bounds numeric indexes treated as list positions. Larger
// indexes become mapping keys so a request cannot allocate huge lists.
const maxListIndex = 20

// Parse decodes a raw query string. Pairs that fail to unescape are dropped.
func Parse(rawQuery string) *jsonb.Object {
	root := jsonb.NewObject()

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}

		path := jsonb.ParsePath(key)
		head := path.Parts[0]
		current, present := root.Get(head)
		root.Set(head, insert(current, present, path.Parts[1:], jsonb.String(value)))
	}

	return root
}

// Expand returns the value stored under key, decoding it as JSON when it is
// an inline JSON object or array. Malformed JSON is returned as the raw string.
func Expand(query *jsonb.Object, key string) (jsonb.Value, bool) {
	v, ok := query.Get(key)
	if !ok {
		return jsonb.Value{}, false
	}
	if s, isString := v.Str(); isString && jsonb.LooksLikeJSON(s) {
		if decoded, err := jsonb.Decode([]byte(s)); err == nil {
			return decoded, true
		}
	}
	return v, true
}

func insert(current jsonb.Value, present bool, parts []string, leaf jsonb.Value) jsonb.Value {
	if len(parts) == 0 {
		return combine(current, present, leaf)
	}

	part, rest := parts[0], parts[1:]

	if part == "" {
		items, isList := current.List()
		if present && !isList {
			if obj, isObject := current.Object(); isObject {
				key := strconv.Itoa(obj.Len())
				obj.Set(key, insert(jsonb.Value{}, false, rest, leaf))
				return current
			}
			items = []jsonb.Value{current}
		}
		items = append(items, insert(jsonb.Value{}, false, rest, leaf))
		return jsonb.List(items...)
	}

	if idx, err := strconv.Atoi(part); err == nil && idx >= 0 && idx <= maxListIndex {
		if items, isList := current.List(); isList || !present {
			if idx < len(items) {
				items[idx] = insert(items[idx], true, rest, leaf)
				return jsonb.List(items...)
			}
			items = append(items, insert(jsonb.Value{}, false, rest, leaf))
			return jsonb.List(items...)
		}
	}

	obj := toObject(current, present)
	child, childPresent := obj.Get(part)
	obj.Set(part, insert(child, childPresent, rest, leaf))
	return jsonb.FromObject(obj)
}

// combine merges a repeated leaf into an existing value the way qs does:
// scalars turn into lists, lists grow, mappings are left alone.
func combine(current jsonb.Value, present bool, leaf jsonb.Value) jsonb.Value {
	if !present {
		return leaf
	}
	switch current.Kind() {
	case jsonb.KindList:
		items, _ := current.List()
		return jsonb.List(append(items, leaf)...)
	case jsonb.KindObject:
		return current
	default:
		return jsonb.List(current, leaf)
	}
}

func toObject(current jsonb.Value, present bool) *jsonb.Object {
	if !present {
		return jsonb.NewObject()
	}
	if obj, ok := current.Object(); ok {
		return obj
	}
	obj := jsonb.NewObject()
	if items, ok := current.List(); ok {
		for i, item := range items {
			obj.Set(strconv.Itoa(i), item)
		}
	}
	return obj
}
