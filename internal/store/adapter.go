// Package store executes builder-rendered statements through a database
// connection and reports each one to the registered observers.
package store

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/rebeliceyang/tablerest/internal/db/connection"
	"github.com/rebeliceyang/tablerest/internal/db/query"
	"github.com/rebeliceyang/tablerest/internal/jsonb"
	"github.com/rebeliceyang/tablerest/internal/models"
)

// Observer is notified after every executed statement
type Observer interface {
	ObserveStatement(models.Statement)
}

// Adapter runs table operations against one database
type Adapter struct {
	exec       connection.Executor
	primaryKey string
	logger     log.Logger
	observers  []Observer
}

// New creates an Adapter. primaryKey names the column used for by-id
// operations and returned by inserts.
func New(exec connection.Executor, primaryKey string, logger log.Logger, observers ...Observer) *Adapter {
	if primaryKey == "" {
		primaryKey = "id"
	}
	return &Adapter{
		exec:       exec,
		primaryKey: primaryKey,
		logger:     logger,
		observers:  observers,
	}
}

// PrimaryKey returns the configured primary key column
func (a *Adapter) PrimaryKey() string { return a.primaryKey }

// ForTable returns an empty builder for table in the connection's dialect
func (a *Adapter) ForTable(table string) *query.Builder {
	return query.New(a.exec.Dialect(), table)
}

// Ping checks the database connection
func (a *Adapter) Ping(ctx context.Context) error {
	return a.exec.Ping(ctx)
}

// Select returns the rows matched by qb
func (a *Adapter) Select(ctx context.Context, qb *query.Builder) ([]*jsonb.Object, error) {
	sql, args, err := qb.SelectSQL()
	if err != nil {
		return nil, err
	}
	level.Debug(a.logger).Log("msg", "select", "query", sql)

	var rows []*jsonb.Object
	err = a.run(models.StatementSelect, qb.Table(), sql, func() (int64, error) {
		var err error
		rows, err = a.exec.Query(ctx, sql, args...)
		return int64(len(rows)), err
	})
	return rows, err
}

// FindByID returns the row whose primary key is id, or nil when there is none
func (a *Adapter) FindByID(ctx context.Context, table string, id any) (*jsonb.Object, error) {
	qb := a.ForTable(table).Where(a.primaryKey, models.OpEqual, id).Limit(1)
	rows, err := a.Select(ctx, qb)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Insert adds a row and returns its generated primary key
func (a *Adapter) Insert(ctx context.Context, table string, payload *jsonb.Object) (any, error) {
	sql, args, err := a.ForTable(table).InsertSQL(payload, a.primaryKey)
	if err != nil {
		return nil, err
	}
	level.Debug(a.logger).Log("msg", "insert", "query", sql)

	var id any
	err = a.run(models.StatementInsert, table, sql, func() (int64, error) {
		var err error
		id, err = a.exec.Insert(ctx, sql, args...)
		if err != nil {
			return 0, err
		}
		return 1, nil
	})
	return id, err
}

// Update sets payload on the rows matched by qb and returns how many changed
func (a *Adapter) Update(ctx context.Context, qb *query.Builder, payload *jsonb.Object) (int64, error) {
	sql, args, err := qb.UpdateSQL(payload)
	if err != nil {
		return 0, err
	}
	level.Debug(a.logger).Log("msg", "update", "query", sql)

	var affected int64
	err = a.run(models.StatementUpdate, qb.Table(), sql, func() (int64, error) {
		var err error
		affected, err = a.exec.Execute(ctx, sql, args...)
		return affected, err
	})
	return affected, err
}

// Delete removes the rows matched by qb and returns how many were removed
func (a *Adapter) Delete(ctx context.Context, qb *query.Builder) (int64, error) {
	sql, args, err := qb.DeleteSQL()
	if err != nil {
		return 0, err
	}
	level.Debug(a.logger).Log("msg", "delete", "query", sql)

	var affected int64
	err = a.run(models.StatementDelete, qb.Table(), sql, func() (int64, error) {
		var err error
		affected, err = a.exec.Execute(ctx, sql, args...)
		return affected, err
	})
	return affected, err
}

func (a *Adapter) run(kind models.StatementKind, table, sql string, fn func() (int64, error)) error {
	start := time.Now()
	n, err := fn()

	stmt := models.Statement{
		Kind:         kind,
		Table:        table,
		SQL:          sql,
		Duration:     time.Since(start),
		RowsAffected: n,
		Err:          err,
	}
	for _, o := range a.observers {
		o.ObserveStatement(stmt)
	}
	return err
}
