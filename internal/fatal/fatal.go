// Package fatal is the single termination path for unrecoverable failures:
// thread creation exhaustion and application errors escaping a thread.
package fatal

import (
	"log/slog"
	"os"
	"sync"
)

// ExitCode is the process exit status used by Abort, matching the Go runtime's own crash status
const ExitCode = 2

var (
	mu       sync.RWMutex
	exitFunc = os.Exit
)

// Abort logs msg with args at error level and terminates the process.
func Abort(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error(msg, args...)

	mu.RLock()
	exit := exitFunc
	mu.RUnlock()
	exit(ExitCode)
}

// SetExitFunc replaces the function Abort uses to terminate the process and
// returns a function that restores the previous one. Tests use it to observe
// the abort path without dying.
func SetExitFunc(fn func(int)) (restore func()) {
	mu.Lock()
	prev := exitFunc
	exitFunc = fn
	mu.Unlock()

	return func() {
		mu.Lock()
		exitFunc = prev
		mu.Unlock()
	}
}
