package thread

import (
	"sync"
)

// names maps OS thread id to the name of the Thread running on it
var names sync.Map

// CurrentTid returns the OS id of the calling thread. Goroutines migrate
// between OS threads unless locked, so the value is only stable inside a
// Thread body or after runtime.LockOSThread. Returns 0 where the platform
// exposes no thread id.
func CurrentTid() int {
	return gettid()
}

// CurrentName returns the name of the Thread running on the calling OS
// thread, or "unknown" when the caller is not inside a Thread body.
func CurrentName() string {
	tid := gettid()
	if tid == 0 {
		return "unknown"
	}
	if name, ok := names.Load(tid); ok {
		return name.(string)
	}
	return "unknown"
}

// IsMainThread reports whether the caller runs on the process's initial OS thread
func IsMainThread() bool {
	return gettid() == getpid()
}
