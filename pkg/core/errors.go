// Package core provides the assistant engine: memory, preferences, context,
// routines, intent interpretation and execution.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRoutineNotFound indicates that a named routine is not registered.
	ErrRoutineNotFound = errors.New("routine not found")

	// ErrOracleUnavailable indicates that no usable oracle is configured.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrClosed indicates use of an engine after Close.
	ErrClosed = errors.New("engine closed")
)

// EngineError wraps errors with operation context.
//
// Example:
//
//	err := &EngineError{
//	    Op:  "CreateShortcut",
//	    Err: ErrInvalidInput,
//	}
//	// Error() returns: "atlas: CreateShortcut: invalid input"
type EngineError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns "atlas: <Op>: <Err>".
func (e *EngineError) Error() string {
	return fmt.Sprintf("atlas: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error so errors.Is and errors.As see
// through EngineError.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError wraps err with op. It returns nil if err is nil:
//
//	if err != nil {
//	    return NewEngineError("Load", err)
//	}
func NewEngineError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{
		Op:  op,
		Err: err,
	}
}
