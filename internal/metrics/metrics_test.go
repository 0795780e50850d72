package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/tablerest/internal/models"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveRequest("/v1/:table", http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveRequest("/v1/:table", http.MethodGet, 200, 20*time.Millisecond)
	m.ObserveRequest("", http.MethodGet, 404, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/:table", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "404")))

	m.ObserveStatement(models.Statement{Kind: models.StatementUpdate})
	m.ObserveStatement(models.Statement{Kind: models.StatementUpdate, Err: errors.New("x")})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statements.WithLabelValues("update", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statements.WithLabelValues("update", "error")))

	m.ObserveFilter(3)
	assert.Equal(t, 1, testutil.CollectAndCount(m.filtersApplied))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveStatement(models.Statement{Kind: models.StatementSelect})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tablerest_statements_total{kind="select",result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
