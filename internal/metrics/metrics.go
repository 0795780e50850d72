// Package metrics holds the Prometheus collectors for HTTP requests and
// executed statements.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rebeliceyang/tablerest/internal/models"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	statements      *prometheus.CounterVec
	statementTime   *prometheus.HistogramVec
	filtersApplied  prometheus.Histogram
}

// New registers the collectors with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors with reg and serves them from gatherer
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablerest_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tablerest_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		statements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablerest_statements_total",
				Help: "Total number of executed SQL statements by kind and outcome",
			},
			[]string{"kind", "result"},
		),
		statementTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tablerest_statement_duration_seconds",
				Help:    "SQL statement latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		filtersApplied: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tablerest_filter_predicates",
			Help:    "Number of predicates compiled from a where filter",
			Buckets: []float64{0, 1, 2, 4, 8, 16},
		}),
	}
}

// ObserveRequest records one HTTP request. route is the matched route
// pattern, not the raw path.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// ObserveStatement records one executed statement
func (m *Metrics) ObserveStatement(stmt models.Statement) {
	result := "ok"
	if stmt.Err != nil {
		result = "error"
	}
	m.statements.WithLabelValues(string(stmt.Kind), result).Inc()
	m.statementTime.WithLabelValues(string(stmt.Kind)).Observe(stmt.Duration.Seconds())
}

// ObserveFilter records how many predicates a where filter produced
func (m *Metrics) ObserveFilter(applied int) {
	m.filtersApplied.Observe(float64(applied))
}

// Handler returns the Prometheus HTTP handler for /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
