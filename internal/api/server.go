// Package api serves tables over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/rebeliceyang/tablerest/internal/apperr"
	"github.com/rebeliceyang/tablerest/internal/config"
	"github.com/rebeliceyang/tablerest/internal/history"
	"github.com/rebeliceyang/tablerest/internal/metrics"
	"github.com/rebeliceyang/tablerest/internal/store"
	"github.com/rebeliceyang/tablerest/internal/upsert"
)

// Options configures a Server. History and Metrics are optional.
type Options struct {
	Store   *store.Adapter
	History *history.Store
	Metrics *metrics.Metrics
	Logger  log.Logger

	Auth          config.BasicAuthConfig
	RateLimit     int
	RateBurst     int
	LegacySuccess bool
}

// Server routes table requests to the store
type Server struct {
	store         *store.Adapter
	upsert        *upsert.Orchestrator
	history       *history.Store
	metrics       *metrics.Metrics
	logger        log.Logger
	legacySuccess bool

	router *gin.Engine
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Server{
		store:         opts.Store,
		upsert:        upsert.New(opts.Store),
		history:       opts.History,
		metrics:       opts.Metrics,
		logger:        logger,
		legacySuccess: opts.LegacySuccess,
	}
	if s.metrics != nil {
		s.upsert.OnFilter = s.metrics.ObserveFilter
	}

	s.router = s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(requestID(), s.accessLog(), s.recovery(), s.errorEnvelope())

	router.NoRoute(func(c *gin.Context) {
		s.fail(c, apperr.RouteNotFound())
	})

	router.GET("/health", s.health)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	guarded := []gin.HandlerFunc{rateLimit(opts.RateLimit, opts.RateBurst), basicAuth(opts.Auth)}

	v1 := router.Group("/v1", guarded...)
	v1.GET("/:table/:id", s.getByID)
	v1.GET("/:table", s.list)
	v1.POST("/:table", s.insert)
	v1.PUT("/:table/:id", s.updateByID)
	v1.PUT("/:table", s.updateByFilter)
	v1.DELETE("/:table/:id", s.deleteByID)

	if s.history != nil {
		internal := router.Group("/_", guarded...)
		internal.GET("/history", s.recentStatements)
	}

	return router
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		level.Info(s.logger).Log("msg", "server is running", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	level.Info(s.logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
