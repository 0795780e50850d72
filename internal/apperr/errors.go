package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an error with the HTTP status and response code it maps to
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error // internal cause, logged but never sent to the client
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error
func New(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

func InvalidFilterShape(err error) *Error {
	return New(http.StatusBadRequest, "InvalidFilterShape", "Invalid filter: where must be an object of column conditions", err)
}

func MissingFilter(err error) *Error {
	return New(http.StatusBadRequest, "MissingFilter", "Missing filter: where must contain at least one valid condition", err)
}

// NotFound is the update-by-filter miss. It is a 400, not a 404, so clients
// can tell it apart from an unknown route.
func NotFound(err error) *Error {
	return New(http.StatusBadRequest, "NotFound", "No rows matched the filter", err)
}

func InvalidPayload(message string, err error) *Error {
	return New(http.StatusBadRequest, "InvalidPayload", message, err)
}

func Unauthorized() *Error {
	return New(http.StatusUnauthorized, "401", "Unauthorized", nil)
}

func TooManyRequests() *Error {
	return New(http.StatusTooManyRequests, "429", "Too Many Requests", nil)
}

func RouteNotFound() *Error {
	return New(http.StatusNotFound, "404", "Not Found", nil)
}

// Internal wraps an unclassified failure. The message is the cause's text.
func Internal(err error) *Error {
	msg := "Internal Server Error"
	if err != nil {
		msg = err.Error()
	}
	return New(http.StatusInternalServerError, "500", msg, err)
}

// From returns err as an *Error, classifying anything else as Internal
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
