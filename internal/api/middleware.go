package api

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/rebeliceyang/tablerest/internal/apperr"
	"github.com/rebeliceyang/tablerest/internal/config"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// requestID tags each request with an id, reusing the caller's when given
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// recovery converts panics into the 500 envelope
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		level.Error(s.logger).Log(
			"msg", "panic serving request",
			"endpoint", c.Request.Method+" "+c.Request.URL.Path,
			"panic", fmt.Sprint(recovered),
			"request_id", c.GetString(requestIDKey),
		)
		s.fail(c, apperr.Internal(fmt.Errorf("%v", recovered)))
	})
}

// accessLog logs every request at debug level and feeds the request metrics
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		level.Debug(s.logger).Log(
			"msg", "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", elapsed,
			"request_id", c.GetString(requestIDKey),
		)
		if s.metrics != nil {
			s.metrics.ObserveRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), elapsed)
		}
	}
}

// rateLimiterIdle is the shortest time a client is kept after its last request
const rateLimiterIdle = 10 * time.Minute

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP. Clients idle for longer
// than idle are swept on the next request after that; by then their bucket
// has refilled, so a fresh one behaves the same.
type rateLimiter struct {
	clients   map[string]*rateClient
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(requestsPerMinute, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &rateLimiter{
		clients:   make(map[string]*rateClient),
		rate:      rate.Every(interval),
		burst:     burst,
		idle:      max(rateLimiterIdle, interval*time.Duration(burst)),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idle {
		rl.sweep(now)
	}

	c, exists := rl.clients[ip]
	if !exists {
		c = &rateClient{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep drops clients not seen within idle. Callers hold mu.
func (rl *rateLimiter) sweep(now time.Time) {
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) >= rl.idle {
			delete(rl.clients, ip)
		}
	}
	rl.lastSweep = now
}

// rateLimit rejects clients exceeding requestsPerMinute. 0 disables it.
func rateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newRateLimiter(requestsPerMinute, burst)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = c.RemoteIP()
		}

		if !limiter.allow(ip) {
			_ = c.Error(apperr.TooManyRequests())
			c.Abort()
			return
		}
		c.Next()
	}
}

// basicAuth accepts "Authorization: Basic base64(user:pass)" matching the
// configured credentials. The decoded token must contain exactly one colon.
// With no username configured every request is rejected.
func basicAuth(cfg config.BasicAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checkBasicAuth(cfg, c.GetHeader("Authorization")) {
			c.Header("WWW-Authenticate", `Basic realm="tablerest"`)
			_ = c.Error(apperr.Unauthorized())
			c.Abort()
			return
		}
		c.Next()
	}
}

func checkBasicAuth(cfg config.BasicAuthConfig, header string) bool {
	if cfg.Username == "" || (cfg.Password == "" && cfg.PasswordHash == "") {
		return false
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Basic" {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	creds := strings.Split(string(decoded), ":")
	if len(creds) != 2 {
		return false
	}
	user, pass := creds[0], creds[1]

	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) == 1
	var passOK bool
	if cfg.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(pass)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
	}
	return userOK && passOK
}
