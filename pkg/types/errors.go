// Package types defines error types
package types

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Predefined errors
var (
	// ErrAlreadyStarted indicates Start was called twice
	ErrAlreadyStarted = errors.New("already started")

	// ErrNotStarted indicates an operation that requires a started thread
	ErrNotStarted = errors.New("thread not started")

	// ErrAlreadyJoined indicates Join was called twice
	ErrAlreadyJoined = errors.New("thread already joined")

	// ErrDetached indicates the thread was detached and can no longer be joined
	ErrDetached = errors.New("thread detached")

	// ErrPoolNotStarted indicates the pool has not been started
	ErrPoolNotStarted = errors.New("thread pool is not started")

	// ErrPoolStopped indicates the pool is stopped
	ErrPoolStopped = errors.New("thread pool is stopped")

	// ErrPoolRunning indicates configuration was changed after Start
	ErrPoolRunning = errors.New("thread pool is already running")

	// ErrStopFromWorker indicates Stop was called by one of the pool's own workers
	ErrStopFromWorker = errors.New("thread pool stopped from its own worker")

	// ErrNilTask indicates a nil task was submitted
	ErrNilTask = errors.New("task cannot be nil")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrResourceExhausted indicates no more threads can be created
	ErrResourceExhausted = errors.New("resource exhausted")
)

// TaskError is an application-level error raised by a task. It records the
// stack of the goroutine that created it, so a crashing thread can report
// where the failure originated.
type TaskError struct {
	// Operation is the name of the operation where the error occurred
	Operation string

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}

	stack string
}

// NewTaskError creates a new TaskError and captures the current stack
func NewTaskError(operation string, cause error) *TaskError {
	return &TaskError{
		Operation: operation,
		Cause:     cause,
		Context:   make(map[string]interface{}),
		stack:     string(debug.Stack()),
	}
}

// Error implements the error interface
func (e *TaskError) Error() string {
	return fmt.Sprintf("task error in operation %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// StackTrace returns the stack captured when the error was created
func (e *TaskError) StackTrace() string {
	return e.stack
}

// WithContext adds error context
func (e *TaskError) WithContext(key string, value interface{}) *TaskError {
	e.Context[key] = value
	return e
}

// StackTracer is implemented by errors that carry a diagnostic stack trace
type StackTracer interface {
	StackTrace() string
}
