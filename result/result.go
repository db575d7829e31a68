// Package result carries the outcome of a service operation: either a
// success with a message and payload, or a failure with a message, a kind and
// the underlying error. Expected domain failures travel as values; callers
// branch on OK before touching the payload.
package result

import (
	"errors"
	"log/slog"
)

type Kind int

const (
	KindNone Kind = iota
	ValidationError
	NotFound
	DuplicateUser
	StoreError
)

func (k Kind) String() string {
	switch k {
	case ValidationError:
		return "validation_error"
	case NotFound:
		return "not_found"
	case DuplicateUser:
		return "duplicate_user"
	case StoreError:
		return "store_error"
	default:
		return "none"
	}
}

type Result[T any] struct {
	ok      bool
	kind    Kind
	Message string
	data    T
	err     error
}

func Success[T any](message string, data T) Result[T] {
	return Result[T]{ok: true, Message: message, data: data}
}

// Failure builds a failed result. err may be nil when there is no
// underlying cause worth reporting.
func Failure[T any](kind Kind, message string, err error) Result[T] {
	return Result[T]{kind: kind, Message: message, err: err}
}

func (r Result[T]) OK() bool {
	return r.ok
}

// Data is the payload of a success; the zero value on failure.
func (r Result[T]) Data() T {
	return r.data
}

// Err is the underlying error of a failure; nil on success.
func (r Result[T]) Err() error {
	return r.err
}

func (r Result[T]) Kind() Kind {
	return r.kind
}

// Is reports whether the failure was caused by target.
func (r Result[T]) Is(target error) bool {
	return r.err != nil && errors.Is(r.err, target)
}

// LogError reports a failure that carries an underlying error. Successes and
// bare failures are ignored.
func (r Result[T]) LogError(logger *slog.Logger, prefix string) {
	if r.ok || r.err == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error(prefix+r.Message, "kind", r.kind.String(), "error", r.err)
}
