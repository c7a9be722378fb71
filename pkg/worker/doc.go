/*
Package worker provides a fixed-size thread pool with a bounded FIFO task
queue.

# Overview

ThreadPool runs submitted tasks on a fixed set of OS threads (see package
thread). All workers drain one queue guarded by a single mutex; two
condition variables bound to that mutex signal "queue not empty" to
workers and "queue not full" to producers.

# Lifecycle

	Idle --Start(n)--> Running --Stop()--> Stopped

Run is accepted only while Running. Stop is terminal and idempotent: it
wakes every waiter, joins every worker, and discards tasks still queued.
Callers that need queued work to finish call WaitEmpty before Stop.

# Backpressure

With a positive MaxQueueSize, Run blocks the producer while the queue is
full instead of dropping work or growing without bound. A producer blocked
when the pool stops returns ErrPoolStopped and its task is not queued.

# Pass-through mode

Start(0) creates no workers; Run then executes each task synchronously on
the caller before returning.

# Ordering

Tasks enter the queue in the order each producer calls Run. A single
worker executes them in that order; with several workers no completion
order is guaranteed, but every accepted task executes at most once.

# Failures

A task that panics with an error aborts the process after logging it,
including the stack of a types.TaskError. Tasks are expected to handle
their recoverable errors themselves.

# Usage Examples

Basic usage:

	pool, err := worker.NewThreadPool(&worker.Config{
		Name:         "io",
		MaxQueueSize: 1024,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := pool.Start(4); err != nil {
		log.Fatal(err)
	}
	defer pool.Stop()

	if err := pool.Run(func() {
		resolve(host)
	}); err != nil {
		log.Printf("Failed to submit task: %v", err)
	}

Configuration from YAML:

	config, err := worker.LoadConfig(file)
	if err != nil {
		log.Fatal(err)
	}
	config.Registerer = prometheus.DefaultRegisterer
	pool, err := worker.NewThreadPool(config)

# Metrics

When Config.Registerer is set, the pool registers queue depth, worker
count, submitted/executed/rejected/blocked counters and a task duration
histogram, all prefixed with Config.MetricsPrefix and labelled with the
pool name.
*/
package worker
