// Package upsert implements update-by-filter with optional insert-on-miss.
package upsert

import (
	"context"
	"errors"

	"github.com/rebeliceyang/tablerest/internal/db/query"
	"github.com/rebeliceyang/tablerest/internal/filter"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

var (
	// ErrMissingFilter is returned when no filter was given or none of its
	// entries compiled to a predicate
	ErrMissingFilter = errors.New("missing filter")
	// ErrNotFound is returned when the update matched no rows and inserting
	// was not requested
	ErrNotFound = errors.New("no rows matched the filter")
)

// Store is the subset of the table adapter the orchestrator needs
type Store interface {
	ForTable(table string) *query.Builder
	Update(ctx context.Context, qb *query.Builder, payload *jsonb.Object) (int64, error)
	Insert(ctx context.Context, table string, payload *jsonb.Object) (any, error)
	PrimaryKey() string
}

type Orchestrator struct {
	store Store
	// OnFilter, when set, receives the number of predicates each filter produced
	OnFilter func(applied int)
}

func New(store Store) *Orchestrator {
	return &Orchestrator{store: store}
}

// Apply updates the rows matched by req.Filter. When nothing matched and
// req.AllowInsertOnMiss is set, it inserts the payload merged with the
// filter's equality conditions instead and returns it with the generated key.
//
// The update and the insert are separate statements, so concurrent calls
// with the same filter can both insert.
func (o *Orchestrator) Apply(ctx context.Context, req models.UpsertRequest) (*jsonb.Object, error) {
	if req.Filter == nil {
		return nil, ErrMissingFilter
	}

	qb, applied, err := filter.Apply(*req.Filter, o.store.ForTable(req.Table))
	if err != nil {
		return nil, err
	}
	if o.OnFilter != nil {
		o.OnFilter(applied)
	}
	if applied == 0 {
		return nil, ErrMissingFilter
	}

	payload := req.Payload
	if payload == nil {
		payload = jsonb.NewObject()
	}

	affected, err := o.store.Update(ctx, qb, payload)
	if err != nil {
		return nil, err
	}
	if affected > 0 {
		return payload, nil
	}
	if !req.AllowInsertOnMiss {
		return nil, ErrNotFound
	}

	record := insertPayload(*req.Filter, payload)
	id, err := o.store.Insert(ctx, req.Table, record)
	if err != nil {
		return nil, err
	}
	if id != nil {
		record.Set(o.store.PrimaryKey(), jsonb.Of(id))
	}
	return record, nil
}

// insertPayload copies the scalar (equality) conditions of the raw filter
// into a copy of payload. Filter values replace payload values.
func insertPayload(rawFilter jsonb.Value, payload *jsonb.Object) *jsonb.Object {
	record := payload.Clone()
	if conditions, ok := rawFilter.Object(); ok {
		conditions.Range(func(column string, v jsonb.Value) bool {
			if column != "" && v.IsScalar() {
				record.Set(column, v)
			}
			return true
		})
	}
	return record
}
