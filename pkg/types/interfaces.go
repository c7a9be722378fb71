// Package types defines core interfaces and types shared by the threading packages
package types

import (
	"time"
)

// Task is an opaque, deferred unit of work with no arguments and no result.
// Ownership moves with the value: the queue holds it until a worker takes it.
type Task func()

// Executor defines anything that accepts deferred work
type Executor interface {
	// Run submits a task for execution
	Run(task Task) error
}

// PoolState defines the state of a ThreadPool
type PoolState int32

const (
	// PoolIdle ThreadPool has been created but not started
	PoolIdle PoolState = iota
	// PoolRunning ThreadPool accepts and executes tasks
	PoolRunning
	// PoolStopped ThreadPool has been stopped; terminal
	PoolStopped
)

// String returns the string representation of PoolState
func (ps PoolState) String() string {
	switch ps {
	case PoolIdle:
		return "Idle"
	case PoolRunning:
		return "Running"
	case PoolStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// PoolStats defines basic statistics for thread pools
type PoolStats struct {
	// Name is the pool name
	Name string

	// State is the lifecycle state at the time of the snapshot
	State PoolState

	// Workers is the number of worker threads
	Workers int

	// QueueSize is the current number of tasks in the queue
	QueueSize int

	// MaxQueueSize is the queue bound, 0 means unbounded
	MaxQueueSize int

	// Submitted is the number of tasks accepted by Run
	Submitted int64

	// Executed is the number of tasks that returned normally
	Executed int64

	// Rejected is the number of tasks refused by Run
	Rejected int64

	// Blocked is the number of times a producer waited on a full queue
	Blocked int64

	// AverageExecutionTime is the mean task duration
	AverageExecutionTime time.Duration
}
