// Package logging builds the go-kit logger shared by every component.
package logging

import (
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a logger writing to stderr. Debug lines are dropped unless
// debug is set. format is "logfmt" (default) or "json".
func New(debug bool, format string) log.Logger {
	return NewWithWriter(os.Stderr, debug, format)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, debug bool, format string) log.Logger {
	var logger log.Logger
	if format == "json" {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}

	if debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}
