package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/tablerest/internal/models"
)

// isolate keeps Load away from a developer's own config.yaml
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, name := range []string{"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD", "PGSSLMODE", "PGPASSFILE"} {
		t.Setenv(name, "")
	}
}

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "id", cfg.DB.PrimaryKey)
	assert.Equal(t, ":memory:", cfg.DB.SQLite.Filename)
	assert.Equal(t, 10, cfg.DB.Pool.MaxConns)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Response.LegacySuccess)
	assert.Equal(t, "logfmt", cfg.Log.Format)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("DEBUG", "true")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "better-sqlite3")
	t.Setenv("DB_SQLITE_FILENAME", "/tmp/app.db")
	t.Setenv("AUTH_BASIC_USERNAME", "admin")
	t.Setenv("AUTH_BASIC_PASSWORD", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Debug)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "admin", cfg.Auth.Basic.Username)
	assert.Equal(t, "secret", cfg.Auth.Basic.Password)

	conn := cfg.Connection()
	assert.Equal(t, models.DriverSQLite, conn.Driver)
	assert.Equal(t, "/tmp/app.db", conn.Filename)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "tablerest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 4000
db:
  driver: pg
  host: db.internal
  name: shop
  postgres:
    search_path: "tenant, public"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	conn := cfg.Connection()
	assert.Equal(t, models.DriverPostgres, conn.Driver)
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, 5432, conn.Port)
	assert.Equal(t, []string{"tenant", "public"}, conn.SearchPath)
	assert.Equal(t, "disable", conn.SSLMode)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_PGEnvironmentFallback(t *testing.T) {
	isolate(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_NAME", "explicit")
	t.Setenv("PGHOST", "pg.local")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGDATABASE", "ignored")
	t.Setenv("PGUSER", "alice")
	t.Setenv("PGSSLMODE", "require")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "pg.local", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "explicit", cfg.DB.Name)
	assert.Equal(t, "alice", cfg.DB.User)
	assert.Equal(t, "require", cfg.DB.SSLMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"sqlite ok", func(c *Config) { c.DB.Driver = "sqlite3" }, false},
		{"no driver", func(c *Config) {}, true},
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }, true},
		{"postgres without host", func(c *Config) { c.DB.Driver = "pg"; c.DB.Name = "x" }, true},
		{"bad port", func(c *Config) { c.DB.Driver = "sqlite3"; c.Port = 70000 }, true},
		{"empty primary key", func(c *Config) { c.DB.Driver = "sqlite3"; c.DB.PrimaryKey = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
