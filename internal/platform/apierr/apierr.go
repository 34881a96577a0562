package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound marks a missing resource (run, user, server).
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks rejected input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConfiguration marks a data/code mismatch (e.g. a persisted step
	// name with no registered logic). Never recoverable at request time.
	ErrConfiguration = errors.New("configuration error")
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(code string, err error) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
}

// StatusOf maps an error to an HTTP status, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidArgument) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
