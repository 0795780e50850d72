package filter

import (
	"strings"

	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

// CompileOrder parses an orderBy value: either "column [asc|desc]" or a list
// of such strings. An unknown direction word is dropped and the column kept;
// non-string list elements are dropped.
func CompileOrder(raw jsonb.Value) models.OrderSpec {
	if s, ok := raw.Str(); ok {
		if key, ok := parseOrderKey(s); ok {
			return models.OrderSpec{key}
		}
		return nil
	}

	items, ok := raw.List()
	if !ok {
		return nil
	}

	var spec models.OrderSpec
	for _, item := range items {
		s, ok := item.Str()
		if !ok {
			continue
		}
		if key, ok := parseOrderKey(s); ok {
			spec = append(spec, key)
		}
	}
	return spec
}

func parseOrderKey(s string) (models.OrderKey, bool) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return models.OrderKey{}, false
	}

	key := models.OrderKey{Column: tokens[0]}
	if len(tokens) > 1 {
		switch strings.ToLower(tokens[1]) {
		case "asc":
			key.Direction = models.Ascending
		case "desc":
			key.Direction = models.Descending
		}
	}
	return key, true
}
