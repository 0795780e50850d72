package models

import (
	"time"

	"github.com/rebeliceyang/tablerest/internal/jsonb"
)

// Row is a single result row with columns in select order
type Row = *jsonb.Object

// StatementKind classifies an executed SQL statement
type StatementKind string

const (
	StatementSelect StatementKind = "select"
	StatementInsert StatementKind = "insert"
	StatementUpdate StatementKind = "update"
	StatementDelete StatementKind = "delete"
	StatementOther  StatementKind = "other"
)

// Statement is an executed SQL statement and its outcome
type Statement struct {
	Kind         StatementKind
	Table        string
	SQL          string
	Duration     time.Duration
	RowsAffected int64
	Err          error
}
