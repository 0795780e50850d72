package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log/level"

	"github.com/rebeliceyang/tablerest/internal/apperr"
	"github.com/rebeliceyang/tablerest/internal/filter"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
	"github.com/rebeliceyang/tablerest/internal/querystring"
	"github.com/rebeliceyang/tablerest/internal/upsert"
)

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	s.ok(c, gin.H{"status": "ok"})
}

func (s *Server) getByID(c *gin.Context) {
	row, err := s.store.FindByID(c.Request.Context(), c.Param("table"), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if row == nil {
		s.ok(c, nil)
		return
	}
	s.ok(c, row)
}

func (s *Server) list(c *gin.Context) {
	params := querystring.Parse(c.Request.URL.RawQuery)
	qb := s.store.ForTable(c.Param("table"))

	if n, ok := intParam(params, "limit"); ok {
		qb = qb.Limit(n)
	}
	if n, ok := intParam(params, "skip"); ok {
		qb = qb.Offset(n)
	}

	if where, ok := querystring.Expand(params, "where"); ok {
		var (
			applied int
			err     error
		)
		qb, applied, err = filter.Apply(where, qb)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if s.metrics != nil {
			s.metrics.ObserveFilter(applied)
		}
		s.logFilter(qb.Predicates(), applied)
	}

	if orderBy, ok := querystring.Expand(params, "orderBy"); ok {
		qb = qb.OrderBy(filter.CompileOrder(orderBy)...)
	}

	rows, err := s.store.Select(c.Request.Context(), qb)
	if err != nil {
		_ = c.Error(err)
		return
	}
	s.ok(c, rows)
}

func (s *Server) insert(c *gin.Context) {
	payload, err := readPayload(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, err := s.store.Insert(c.Request.Context(), c.Param("table"), payload)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if id != nil {
		payload.Set(s.store.PrimaryKey(), jsonb.Of(id))
	}
	s.ok(c, payload)
}

func (s *Server) updateByID(c *gin.Context) {
	payload, err := readPayload(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	qb := s.store.ForTable(c.Param("table")).Where(s.store.PrimaryKey(), models.OpEqual, c.Param("id"))
	if _, err := s.store.Update(c.Request.Context(), qb, payload); err != nil {
		_ = c.Error(err)
		return
	}
	s.ok(c, payload)
}

// updateByFilter checks for a where filter before it reads the body, so a
// request without one is a MissingFilter whatever its payload
func (s *Server) updateByFilter(c *gin.Context) {
	params := querystring.Parse(c.Request.URL.RawQuery)
	where, ok := querystring.Expand(params, "where")
	if !ok {
		_ = c.Error(upsert.ErrMissingFilter)
		return
	}

	payload, err := readPayload(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	req := models.UpsertRequest{
		Table:             c.Param("table"),
		Filter:            &where,
		Payload:           payload,
		AllowInsertOnMiss: boolParam(params, "insert"),
	}

	record, err := s.upsert.Apply(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	s.ok(c, record)
}

func (s *Server) deleteByID(c *gin.Context) {
	qb := s.store.ForTable(c.Param("table")).Where(s.store.PrimaryKey(), models.OpEqual, c.Param("id"))
	if _, err := s.store.Delete(c.Request.Context(), qb); err != nil {
		_ = c.Error(err)
		return
	}
	s.ok(c, nil)
}

func (s *Server) recentStatements(c *gin.Context) {
	params := querystring.Parse(c.Request.URL.RawQuery)
	limit, ok := intParam(params, "limit")
	if !ok || limit == 0 {
		limit = 50
	}

	var (
		entries any
		err     error
	)
	if v, ok := params.Get("table"); ok {
		table, _ := v.Str()
		entries, err = s.history.Search(table, limit)
	} else {
		entries, err = s.history.GetRecent(limit)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	s.ok(c, entries)
}

// logFilter writes the compiled filter back in query form at debug level
func (s *Server) logFilter(set models.FilterSet, applied int) {
	where, err := jsonb.Compact(filter.Decompile(set))
	if err != nil {
		return
	}
	level.Debug(s.logger).Log(
		"msg", "filter compiled",
		"applied", applied,
		"columns", strings.Join(set.Columns(), ","),
		"where", jsonb.Truncate(where, 200),
	)
}

// readPayload decodes the request body, which must be a JSON object
func readPayload(c *gin.Context) (*jsonb.Object, error) {
	v, err := jsonb.DecodeReader(c.Request.Body)
	if err != nil {
		return nil, apperr.InvalidPayload("Request body must be a JSON object", err)
	}
	obj, ok := v.Object()
	if !ok {
		return nil, apperr.InvalidPayload("Request body must be a JSON object", nil)
	}
	return obj, nil
}

// intParam reads a non-negative integer parameter; anything else is ignored
func intParam(params *jsonb.Object, key string) (int, bool) {
	v, ok := params.Get(key)
	if !ok {
		return 0, false
	}
	s, ok := v.Str()
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func boolParam(params *jsonb.Object, key string) bool {
	v, ok := params.Get(key)
	if !ok {
		return false
	}
	s, _ := v.Str()
	b, _ := strconv.ParseBool(s)
	return b
}
