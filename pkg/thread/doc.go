/*
Package thread wraps a dedicated OS thread running one task.

A Thread is created with a task and an optional name, started once, and
then either joined or detached. The spawned goroutine locks itself to its
OS thread for its whole life, so the task observes a stable OS identity:

	th := thread.New(func() {
		loop.Run()
	}, "io-loop")
	if err := th.Start(); err != nil {
		return err
	}
	defer th.Join()

The OS thread id is published by the thread itself once it begins
running; Tid returns 0 before that. The name is also applied to the OS
thread (truncated to 15 bytes on Linux) so it shows up in ps and /proc.

A task that panics with an error is a bug: the error, and its stack when
it is a types.TaskError, is logged and the process aborts. Panics with
any other value are logged and re-raised.
*/
package thread
