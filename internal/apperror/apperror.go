// Package apperror defines the typed error carried through every request
// pipeline: HTTP status, human message, machine-readable code, optional
// per-field validation detail and an optional internal cause.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single error shape the handlers render. Code values are
// namespaced per flow (e.g. "auth/invalid-user") so clients can branch
// without matching message strings.
type Error struct {
	Status  int
	Message string
	Code    string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause attaches an internal cause. The cause is only ever rendered
// outside production mode.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithField records a per-field validation message.
func (e *Error) WithField(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

func New(status int, message, code string) *Error {
	return &Error{Status: status, Message: message, Code: code}
}

func BadRequest(message, code string) *Error {
	return New(http.StatusBadRequest, message, code)
}

func Unauthorized(message, code string) *Error {
	return New(http.StatusUnauthorized, message, code)
}

func Forbidden(message, code string) *Error {
	return New(http.StatusForbidden, message, code)
}

func Conflict(message, code string) *Error {
	return New(http.StatusConflict, message, code)
}

func NotFound(message, code string) *Error {
	return New(http.StatusNotFound, message, code)
}

// Internal wraps an unexpected datastore/crypto failure. The client only
// ever sees the generic message.
func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong",
		Code:    "auth/internal-server-error",
		Err:     err,
	}
}

// From extracts an *Error from any error chain, converting unknown errors
// into an internal one so nothing leaks past the boundary untyped.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
