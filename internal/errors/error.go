package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig    Category = "config"
	CategoryRuntime   Category = "runtime"
	CategoryStructure Category = "structure"
	CategoryCLI       Category = "cli"
)

// TrellisError is a structured error with a code, an explanation and a hint.
type TrellisError struct {
	// Code is a unique error identifier (e.g., "T020").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, usually naming the offending value.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *TrellisError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *TrellisError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a TrellisError with the same code.
// Two errors built from the same code match even if their details differ.
func (e *TrellisError) Is(target error) bool {
	t, ok := target.(*TrellisError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying a detailed explanation.
// Sentinels are shared package values, so the With* helpers never mutate
// the receiver.
func (e *TrellisError) WithDetail(d string) *TrellisError {
	c := *e
	c.Detail = d
	return &c
}

// WithSuggestion returns a copy of the error carrying a fix suggestion.
func (e *TrellisError) WithSuggestion(s string) *TrellisError {
	c := *e
	c.Suggestion = s
	return &c
}

// Wrap returns a copy of the error wrapping err.
func (e *TrellisError) Wrap(err error) *TrellisError {
	c := *e
	c.Wrapped = err
	return &c
}

// New creates a TrellisError from a registered error code.
func New(code string) *TrellisError {
	template, ok := registry[code]
	if !ok {
		return &TrellisError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &TrellisError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// FromError wraps a standard error in a TrellisError.
func FromError(err error, code string) *TrellisError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*TrellisError); ok {
		return te
	}
	return New(code).Wrap(err)
}

// FromPanic converts a recovered panic value into a runtime error.
func FromPanic(code string, r any) *TrellisError {
	if err, ok := r.(error); ok {
		return FromError(err, code)
	}
	return New(code).WithDetail(fmt.Sprint(r))
}
