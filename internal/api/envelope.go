package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log/level"

	"github.com/rebeliceyang/tablerest/internal/apperr"
	"github.com/rebeliceyang/tablerest/internal/db/query"
	"github.com/rebeliceyang/tablerest/internal/filter"
	"github.com/rebeliceyang/tablerest/internal/upsert"
)

// Envelope wraps every response body
type Envelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (s *Server) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{
		Success: !s.legacySuccess,
		Code:    "OK",
		Message: "Success",
		Data:    data,
	})
}

func (s *Server) fail(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(err.Status, Envelope{
		Success: false,
		Code:    err.Code,
		Message: err.Message,
		Data:    nil,
	})
}

// errorEnvelope turns the last error a handler attached to the context into
// the error envelope
func (s *Server) errorEnvelope() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		appErr := classify(c.Errors.Last().Err)

		logger := level.Error(s.logger)
		if appErr.Status < http.StatusInternalServerError {
			logger = level.Warn(s.logger)
		}
		logger.Log(
			"msg", "request failed",
			"endpoint", c.Request.Method+" "+c.Request.URL.Path,
			"status", appErr.Status,
			"code", appErr.Code,
			"err", appErr,
			"request_id", c.GetString(requestIDKey),
		)

		s.fail(c, appErr)
	}
}

// classify maps domain errors to their response
func classify(err error) *apperr.Error {
	switch {
	case errors.Is(err, filter.ErrInvalidFilterShape):
		return apperr.InvalidFilterShape(err)
	case errors.Is(err, upsert.ErrMissingFilter):
		return apperr.MissingFilter(err)
	case errors.Is(err, upsert.ErrNotFound):
		return apperr.NotFound(err)
	case errors.Is(err, query.ErrEmptyPayload):
		return apperr.InvalidPayload("Payload must contain at least one column", err)
	default:
		return apperr.From(err)
	}
}
