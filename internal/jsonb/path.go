package jsonb

import "strings"

// Path is a nested key in bracket notation (e.g. where[age][gt]).
// An empty part stands for "append" ([]).
type Path struct {
	Parts []string
}

// ParsePath splits a bracket-notation key. Unbalanced brackets are kept
// literally as part of the key, the same way qs-style parsers do.
func ParsePath(key string) Path {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return Path{Parts: []string{key}}
	}

	parts := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			// Trailing garbage after the last bracket group
			parts[len(parts)-1] += rest
			break
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			parts[len(parts)-1] += rest
			break
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	return Path{Parts: parts}
}
