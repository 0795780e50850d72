package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/tablerest/internal/db/connection"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/logging"
	"github.com/rebeliceyang/tablerest/internal/models"
)

type recorder struct {
	statements []models.Statement
}

func (r *recorder) ObserveStatement(s models.Statement) { r.statements = append(r.statements, s) }

func newTestAdapter(t *testing.T, logger log.Logger, observers ...Observer) *Adapter {
	t.Helper()
	db, err := connection.NewSQLite(context.Background(), models.ConnectionConfig{Driver: models.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Execute(context.Background(), `CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, sku TEXT, price INTEGER)`)
	require.NoError(t, err)

	return New(db, "", logger, observers...)
}

func TestAdapter_CRUD(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	a := newTestAdapter(t, log.NewNopLogger(), rec)
	assert.Equal(t, "id", a.PrimaryKey())

	id, err := a.Insert(ctx, "products", jsonb.ObjectOf("sku", "X1", "price", 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	_, err = a.Insert(ctx, "products", jsonb.ObjectOf("sku", "X2", "price", 20))
	require.NoError(t, err)

	row, err := a.FindByID(ctx, "products", "1")
	require.NoError(t, err)
	require.NotNil(t, row)
	sku, _ := row.Get("sku")
	assert.Equal(t, jsonb.String("X1"), sku)

	row, err = a.FindByID(ctx, "products", "99")
	require.NoError(t, err)
	assert.Nil(t, row)

	affected, err := a.Update(ctx, a.ForTable("products").Where("sku", models.OpEqual, "X2"), jsonb.ObjectOf("price", 25))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	rows, err := a.Select(ctx, a.ForTable("products").Where("price", models.OpGreaterThan, int64(15)))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	price, _ := rows[0].Get("price")
	assert.Equal(t, jsonb.Int(25), price)

	affected, err = a.Delete(ctx, a.ForTable("products").Where("id", models.OpEqual, "1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	kinds := make([]models.StatementKind, len(rec.statements))
	for i, s := range rec.statements {
		kinds[i] = s.Kind
	}
	assert.Equal(t, []models.StatementKind{
		models.StatementInsert,
		models.StatementInsert,
		models.StatementSelect,
		models.StatementSelect,
		models.StatementUpdate,
		models.StatementSelect,
		models.StatementDelete,
	}, kinds)
	assert.Equal(t, "products", rec.statements[0].Table)
}

func TestAdapter_ReportsErrors(t *testing.T) {
	rec := &recorder{}
	a := newTestAdapter(t, log.NewNopLogger(), rec)

	_, err := a.Select(context.Background(), a.ForTable("missing"))
	require.Error(t, err)
	require.Len(t, rec.statements, 1)
	assert.Error(t, rec.statements[0].Err)
}

func TestAdapter_LogsSelectAtDebug(t *testing.T) {
	var buf bytes.Buffer
	a := newTestAdapter(t, logging.NewWithWriter(&buf, true, "logfmt"))

	_, err := a.Select(context.Background(), a.ForTable("products").Where("sku", models.OpEqual, "X1"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `query="SELECT * FROM \"products\" WHERE \"sku\" = ?"`)
	assert.Contains(t, buf.String(), "level=debug")
}
