// Package result provides the discriminated success/error value returned across
// component boundaries. A Result either carries Data or a non-empty list of Errors,
// never both, and is never replaced by a panic.
package result

import (
	"errors"
	"strings"
)

// Error codes shared by every component that produces a Result.
const (
	CodeTransport     = "transport"
	CodeRateLimited   = "rate_limited"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeValidation    = "validation"
	CodeUpstream      = "upstream"
	CodeConfiguration = "configuration"
	CodeDecode        = "decode"
	CodeConflict      = "conflict"
	CodeBusiness      = "business"
)

// Error is a single failure entry.
type Error struct {
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Result is either {Data} or {Errors}. Warnings are non-fatal notes attached to a
// successful result, e.g. when a call degraded to a default value.
type Result[T any] struct {
	Data     T
	Errors   []Error
	Warnings []Error
}

// OK wraps a successful value.
func OK[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

// Degraded wraps a fallback value together with the reasons the real value was
// unavailable.
func Degraded[T any](data T, warnings ...Error) Result[T] {
	return Result[T]{Data: data, Warnings: warnings}
}

// Fail builds a failed result.
func Fail[T any](errs ...Error) Result[T] {
	if len(errs) == 0 {
		errs = []Error{{Message: "unknown error"}}
	}
	return Result[T]{Errors: errs}
}

// Failure builds a failed result with a single coded error.
func Failure[T any](code, message string) Result[T] {
	return Fail[T](Error{Code: code, Message: message})
}

// Forward re-types the errors of a failed result.
func Forward[T, U any](r Result[U]) Result[T] {
	return Result[T]{Errors: r.Errors, Warnings: r.Warnings}
}

// Map converts the data of a successful result.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.Failed() {
		return Forward[U](r)
	}
	return Result[U]{Data: fn(r.Data), Warnings: r.Warnings}
}

// Failed reports whether the result carries errors.
func (r Result[T]) Failed() bool { return len(r.Errors) > 0 }

// IsDegraded reports whether the result succeeded with warnings.
func (r Result[T]) IsDegraded() bool { return !r.Failed() && len(r.Warnings) > 0 }

// HasCode reports whether any error carries the given code.
func (r Result[T]) HasCode(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Message joins the error messages.
func (r Result[T]) Message() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Err returns the errors joined into a single error, or nil on success.
func (r Result[T]) Err() error {
	if !r.Failed() {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
