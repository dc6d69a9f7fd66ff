// Package result provides the tagged outcome type returned at pipeline stage
// boundaries (fetch, ingestion, summarization). A Result is either Ok with a
// value or Err with a Kind that tells the caller how to react.
package result

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Callers branch on the kind rather than on message text.
type Kind string

const (
	// KindConfig means a required credential or setting is missing. Degrade, don't retry.
	KindConfig Kind = "config"
	// KindTransient covers network failures, malformed responses and model-call failures.
	KindTransient Kind = "transient"
	// KindData means the input itself is unusable (bad timestamp, missing URL, ...).
	KindData Kind = "data"
	// KindNotFound means a referenced entity does not exist.
	KindNotFound Kind = "not_found"
)

// Retryable reports whether a later attempt may succeed.
func (k Kind) Retryable() bool {
	return k == KindTransient
}

// Error is the Err branch of a Result. It satisfies the error interface.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf extracts the Kind from err, defaulting to KindTransient for foreign errors.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindTransient
}

// Result holds either a value or an *Error.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err builds a failed result.
func Err[T any](kind Kind, message string) Result[T] {
	return Result[T]{err: &Error{Kind: kind, Message: message}}
}

// Wrap builds a failed result that keeps cause for errors.Is / errors.As.
func Wrap[T any](kind Kind, message string, cause error) Result[T] {
	return Result[T]{err: &Error{Kind: kind, Message: message, Cause: cause}}
}

// WithValue attaches a partial value to a failed result, e.g. the empty
// article list returned alongside a configuration error.
func (r Result[T]) WithValue(v T) Result[T] {
	r.value = v
	return r
}

// IsOk reports whether the result is the Ok branch.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns the carried value. For Err results it is the zero value unless WithValue was used.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure, or nil for Ok results.
func (r Result[T]) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// Kind returns the failure kind, or "" for Ok results.
func (r Result[T]) Kind() Kind {
	if r.err == nil {
		return ""
	}
	return r.err.Kind
}

// Unwrap converts the result to Go's conventional (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.Err()
}
