package models

import "github.com/rebeliceyang/tablerest/internal/jsonb"

// UpsertRequest is an update-by-filter call with optional insert-on-miss.
// Filter is nil when the request carried no filter at all.
type UpsertRequest struct {
	Table             string
	Filter            *jsonb.Value
	Payload           *jsonb.Object
	AllowInsertOnMiss bool
}
