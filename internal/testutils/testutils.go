// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/jzx17/gothreads/internal/fatal"
)

// LogBuffer is a goroutine-safe sink for log output written from worker threads
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger returns a debug-level text logger and the buffer it writes to
func NewTestLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, buf
}

// ExitRecorder captures calls to the fatal exit path
type ExitRecorder struct {
	mu    sync.Mutex
	codes []int
	ch    chan int
}

// Codes returns the exit codes recorded so far
func (r *ExitRecorder) Codes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.codes...)
}

// Exited returns a channel receiving each recorded exit code
func (r *ExitRecorder) Exited() <-chan int {
	return r.ch
}

// RecordExits replaces the fatal exit function for the duration of the test
func RecordExits(t testing.TB) *ExitRecorder {
	r := &ExitRecorder{ch: make(chan int, 16)}
	restore := fatal.SetExitFunc(func(code int) {
		r.mu.Lock()
		r.codes = append(r.codes, code)
		r.mu.Unlock()
		select {
		case r.ch <- code:
		default:
		}
	})
	t.Cleanup(restore)
	return r
}
