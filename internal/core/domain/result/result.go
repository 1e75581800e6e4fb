// Package result carries the success-or-failure envelope returned by every
// command and query, along with the error kinds used to classify failures.
package result

import (
	"errors"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindValidation        Kind = "ValidationError"
	KindInsufficientStock Kind = "InsufficientStock"
	KindException         Kind = "Exception"
)

// ErrorDetail is one entry of a failed result.
type ErrorDetail struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// Error is a classified error. Domain packages declare their sentinel errors
// as *Error values so the orchestration layer can map them without string
// matching.
type Error struct {
	Kind    Kind
	Source  string
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError constructs a classified error.
func NewError(kind Kind, source, message string) *Error {
	return &Error{Kind: kind, Source: source, Message: message}
}

func NotFound(source, message string) *Error   { return NewError(KindNotFound, source, message) }
func Validation(source, message string) *Error { return NewError(KindValidation, source, message) }

// KindOf returns the kind of the first *Error in err's chain, or
// KindException for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindException
}

// Result is either a value or a non-empty list of error details.
type Result[T any] struct {
	Value  T
	Errors []ErrorDetail
}

func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Failure[T any](details ...ErrorDetail) Result[T] {
	return Result[T]{Errors: details}
}

// FromError converts err into a failed result. source is used when err
// carries no source of its own.
func FromError[T any](err error, source string) Result[T] {
	return Failure[T](DetailOf(err, source))
}

// DetailOf builds the error detail for err.
func DetailOf(err error, source string) ErrorDetail {
	var e *Error
	if errors.As(err, &e) {
		src := e.Source
		if src == "" {
			src = source
		}
		// keep wrapping context for classified errors
		return ErrorDetail{Kind: e.Kind, Message: err.Error(), Source: src}
	}
	return ErrorDetail{Kind: KindException, Message: err.Error(), Source: source}
}

func (r Result[T]) IsSuccess() bool { return len(r.Errors) == 0 }

// FirstKind returns the kind of the first error, or "" on success.
func (r Result[T]) FirstKind() Kind {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Kind
}
