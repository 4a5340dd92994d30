package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an article, analysis record or user does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input, most commonly an embedding whose
// length does not match the configured dimensionality.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ComputeError wraps a failure from one of the external AI collaborators.
type ComputeError struct {
	Op  string
	Err error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("compute %s: %v", e.Op, e.Err)
}

func (e *ComputeError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed store write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
