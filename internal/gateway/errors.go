package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed operation for callers.
type ErrorKind string

const (
	KindConfigurationMissing ErrorKind = "configuration_missing"
	KindInvalidArgument      ErrorKind = "invalid_argument"
	KindBackendFailure       ErrorKind = "backend_failure"
	KindTimedOut             ErrorKind = "timed_out"
	KindCanceled             ErrorKind = "canceled"
)

var (
	ErrConfigurationMissing = errors.New("required configuration value is missing")
	ErrTimedOut             = errors.New("operation timed out")
	ErrQueryFailed          = errors.New("query did not complete")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// Error is a typed gateway failure. The message is safe to surface to tool
// callers.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// InvalidArgument reports a caller argument that was rejected before any
// backend call.
func InvalidArgument(op, format string, args ...interface{}) *Error {
	return newError(KindInvalidArgument, op, fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...)))
}

// KindOf returns the kind of err, defaulting to KindBackendFailure for
// untyped errors.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindBackendFailure
}

// contextError classifies a context termination.
func contextError(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimedOut, op, fmt.Errorf("%w: %v", ErrTimedOut, err))
	}
	return newError(KindCanceled, op, err)
}
