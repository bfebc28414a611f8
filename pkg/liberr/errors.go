// Package liberr defines the error taxonomy returned by the lending
// operations. Every error carries a message fit for the person at the desk;
// callers classify errors with errors.Is against the sentinels.
package liberr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports an operation that would break a business rule.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }
func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a reference that no longer resolves.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}
