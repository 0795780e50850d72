package app

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/tablerest/internal/config"
)

func TestNew_MigratesAndServes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	migrations := filepath.Join(dir, "migrations")
	require.NoError(t, os.Mkdir(migrations, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(migrations, "1_notes.up.sql"),
		[]byte(`CREATE TABLE notes (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT);`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(migrations, "1_notes.down.sql"),
		[]byte(`DROP TABLE notes;`), 0o600))

	cfg := config.GetDefaults()
	cfg.DB.Driver = "sqlite3"
	cfg.DB.SQLite.Filename = filepath.Join(dir, "app.db")
	cfg.DB.MigrationsPath = migrations
	cfg.History.Enabled = true
	cfg.Auth.Basic = config.BasicAuthConfig{Username: "u", Password: "p"}

	a, err := New(context.Background(), cfg, log.NewNopLogger())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	req := httptest.NewRequest(http.MethodPost, "/v1/notes", strings.NewReader(`{"body":"hi"}`))
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("u:p")))
	rec := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":false,"code":"OK","message":"Success","data":{"body":"hi","id":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.GetDefaults()
	cfg.DB.Driver = "oracle"

	_, err := New(context.Background(), cfg, log.NewNopLogger())
	assert.Error(t, err)
}
