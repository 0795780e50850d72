package upsert

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/tablerest/internal/db/connection"
	"github.com/rebeliceyang/tablerest/internal/filter"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
	"github.com/rebeliceyang/tablerest/internal/store"
)

func newTestStore(t *testing.T) *store.Adapter {
	t.Helper()
	db, err := connection.NewSQLite(context.Background(), models.ConnectionConfig{Driver: models.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Execute(context.Background(), `CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, sku TEXT, price INTEGER, status TEXT)`)
	require.NoError(t, err)
	return store.New(db, "id", log.NewNopLogger())
}

func decode(t *testing.T, s string) *jsonb.Value {
	t.Helper()
	v, err := jsonb.Decode([]byte(s))
	require.NoError(t, err)
	return &v
}

func encode(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func countRows(t *testing.T, s *store.Adapter) int {
	t.Helper()
	rows, err := s.Select(context.Background(), s.ForTable("products"))
	require.NoError(t, err)
	return len(rows)
}

func TestApply_MissNoInsertIsNotFound(t *testing.T) {
	s := newTestStore(t)
	o := New(s)

	_, err := o.Apply(context.Background(), models.UpsertRequest{
		Table:   "products",
		Filter:  decode(t, `{"sku": "X1"}`),
		Payload: jsonb.ObjectOf("price", 10),
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, countRows(t, s))
}

func TestApply_MissWithInsert(t *testing.T) {
	s := newTestStore(t)
	o := New(s)

	record, err := o.Apply(context.Background(), models.UpsertRequest{
		Table:             "products",
		Filter:            decode(t, `{"sku": "X1"}`),
		Payload:           jsonb.ObjectOf("price", 10),
		AllowInsertOnMiss: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"price":10,"sku":"X1","id":1}`, encode(t, record))

	rows, err := s.Select(context.Background(), s.ForTable("products"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	sku, _ := rows[0].Get("sku")
	assert.Equal(t, jsonb.String("X1"), sku)
}

func TestApply_EmptyFilterIsMissing(t *testing.T) {
	s := newTestStore(t)
	o := New(s)

	for _, insert := range []bool{false, true} {
		_, err := o.Apply(context.Background(), models.UpsertRequest{
			Table:             "products",
			Filter:            decode(t, `{}`),
			Payload:           jsonb.ObjectOf("price", 10),
			AllowInsertOnMiss: insert,
		})
		assert.ErrorIs(t, err, ErrMissingFilter)
	}

	_, err := o.Apply(context.Background(), models.UpsertRequest{Table: "products", Payload: jsonb.ObjectOf("price", 1)})
	assert.ErrorIs(t, err, ErrMissingFilter)

	// Only skippable entries
	_, err = o.Apply(context.Background(), models.UpsertRequest{
		Table:             "products",
		Filter:            decode(t, `{"a": [], "b": {}, "c": {"nope": "1"}}`),
		Payload:           jsonb.ObjectOf("price", 10),
		AllowInsertOnMiss: true,
	})
	assert.ErrorIs(t, err, ErrMissingFilter)
	assert.Zero(t, countRows(t, s))
}

func TestApply_InvalidFilterShape(t *testing.T) {
	o := New(newTestStore(t))

	_, err := o.Apply(context.Background(), models.UpsertRequest{
		Table:   "products",
		Filter:  decode(t, `["sku"]`),
		Payload: jsonb.ObjectOf("price", 10),
	})
	assert.ErrorIs(t, err, filter.ErrInvalidFilterShape)
}

func TestApply_UpdateHit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Insert(ctx, "products", jsonb.ObjectOf("sku", "X1", "price", 5, "status", "old"))
	require.NoError(t, err)

	var seen []int
	o := New(s)
	o.OnFilter = func(applied int) { seen = append(seen, applied) }

	record, err := o.Apply(ctx, models.UpsertRequest{
		Table:             "products",
		Filter:            decode(t, `{"sku": "X1", "price": {"lt": 6}}`),
		Payload:           jsonb.ObjectOf("status", "new"),
		AllowInsertOnMiss: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"status":"new"}`, encode(t, record))
	assert.Equal(t, []int{2}, seen)
	assert.Equal(t, 1, countRows(t, s))

	row, err := s.FindByID(ctx, "products", 1)
	require.NoError(t, err)
	status, _ := row.Get("status")
	assert.Equal(t, jsonb.String("new"), status)
}

func TestInsertPayload_OnlyScalarConditions(t *testing.T) {
	raw := decode(t, `{"sku": "X1", "price": {"gt": 3}, "active": true, "tags": ["a"], "status": "filter"}`)
	got := insertPayload(*raw, jsonb.ObjectOf("status", "payload", "qty", 2))
	assert.Equal(t, `{"status":"filter","qty":2,"sku":"X1","active":true}`, encode(t, got))
}
