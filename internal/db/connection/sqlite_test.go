package connection

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/tablerest/internal/db/query"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

func openMemory(t *testing.T) *SQLite {
	t.Helper()
	db, err := NewSQLite(context.Background(), models.ConnectionConfig{Driver: models.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.Execute(ctx, `CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, sku TEXT, price REAL, meta TEXT)`)
	require.NoError(t, err)

	payload := jsonb.ObjectOf("sku", "X1", "price", 9.5, "meta", map[string]any{"color": "red"})
	sql, args, err := query.New(db.Dialect(), "products").InsertSQL(payload, "id")
	require.NoError(t, err)
	id, err := db.Insert(ctx, sql, args...)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	sql, args, err = query.New(db.Dialect(), "products").
		Where("meta", models.OpExists, "color").
		AndWhere("sku", models.OpILike, "x%").
		SelectSQL()
	require.NoError(t, err)
	rows, err := db.Query(ctx, sql, args...)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"id", "sku", "price", "meta"}, rows[0].Keys())

	sku, _ := rows[0].Get("sku")
	assert.Equal(t, jsonb.String("X1"), sku)

	affected, err := db.Execute(ctx, `UPDATE products SET price = ? WHERE sku = ?`, 12, "nope")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestSQLite_QueryEmptyResult(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.Execute(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	rows, err := db.Query(ctx, `SELECT * FROM t`)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), models.ConnectionConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestNormalizeValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, id.String(), normalizeValue([16]byte(id)))
	assert.Equal(t, "text", normalizeValue([]byte("text")))
	assert.Equal(t, []byte{0xff, 0xfe}, normalizeValue([]byte{0xff, 0xfe}))

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-01T12:00:00Z", normalizeValue(ts))
	assert.Equal(t, int64(3), normalizeValue(int64(3)))
}

func TestBuildConnectionString(t *testing.T) {
	got := buildConnectionString(models.ConnectionConfig{
		Host:     "db",
		Port:     5433,
		Database: "shop",
		User:     "app",
		Password: "p@ss/word",
	})
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5433/shop?sslmode=disable", got)
}

func TestMigrationURL(t *testing.T) {
	got, err := migrationURL(models.ConnectionConfig{
		Driver:     "pg",
		Host:       "db",
		Port:       5432,
		Database:   "shop",
		User:       "app",
		SSLMode:    "require",
		SearchPath: []string{"tenant"},
	})
	require.NoError(t, err)
	assert.Equal(t, `postgres://app@db:5432/shop?search_path=%22tenant%22&sslmode=require`, got)

	_, err = migrationURL(models.ConnectionConfig{Driver: "sqlite3", Filename: ":memory:"})
	assert.Error(t, err)
}

func TestMigrate_SQLite(t *testing.T) {
	dir := t.TempDir()
	migrations := filepath.Join(dir, "migrations")
	require.NoError(t, os.Mkdir(migrations, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(migrations, "1_products.up.sql"),
		[]byte(`CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, sku TEXT);`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(migrations, "1_products.down.sql"),
		[]byte(`DROP TABLE products;`), 0o600))

	config := models.ConnectionConfig{Driver: models.DriverSQLite, Filename: filepath.Join(dir, "app.db")}
	require.NoError(t, Migrate(config, migrations))
	// Second run has nothing to apply
	require.NoError(t, Migrate(config, migrations))

	db, err := Open(context.Background(), config)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows, err := db.Query(context.Background(), `SELECT * FROM products`)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
