package thread

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/jzx17/gothreads/internal/fatal"
	"github.com/jzx17/gothreads/pkg/types"
)

// State defines the lifecycle state of a Thread
type State int32

const (
	// StateCreated represents a thread that has not been started
	StateCreated State = iota
	// StateRunning represents a thread executing its task
	StateRunning
	// StateFinished represents a thread whose task returned normally
	StateFinished
	// StateCrashed represents a thread whose task panicked
	StateCrashed
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

var (
	// numCreated is the process-wide sequence counter, never reset
	numCreated atomic.Int32

	liveThreads atomic.Int32
	maxThreads  atomic.Int32

	// pseudoTid numbers threads on platforms without gettid
	pseudoTid atomic.Int32
)

// NumCreated returns how many Thread values have been constructed
func NumCreated() int {
	return int(numCreated.Load())
}

// LiveThreads returns how many started threads have not yet returned
func LiveThreads() int {
	return int(liveThreads.Load())
}

// SetMaxThreads limits how many threads may be live at once. Exceeding the
// limit in Start is treated as resource exhaustion. n <= 0 removes the
// limit. Returns the previous limit.
func SetMaxThreads(n int) int {
	if n < 0 {
		n = 0
	}
	return int(maxThreads.Swap(int32(n)))
}

func reserveThread() bool {
	for {
		live := liveThreads.Load()
		limit := maxThreads.Load()
		if limit > 0 && live >= limit {
			return false
		}
		if liveThreads.CompareAndSwap(live, live+1) {
			return true
		}
	}
}

// status is written by the running thread and read by the handle's owner
type status struct {
	tid   atomic.Int32
	state atomic.Int32
}

// Option configures a Thread
type Option func(*Thread)

// WithLogger sets the logger used for lifecycle and crash diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(t *Thread) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Thread owns one OS thread running a single task. The goroutine started by
// Start locks itself to its OS thread and never unlocks, so the OS thread
// exits together with the task.
type Thread struct {
	task     types.Task
	name     string
	sequence int
	logger   *slog.Logger

	status *status
	done   chan struct{}

	mu       sync.Mutex
	started  bool
	joined   bool
	detached bool
}

// New creates a Thread that will run task. An empty name becomes
// "Thread<sequence>". Nothing is spawned until Start.
func New(task types.Task, name string, opts ...Option) *Thread {
	seq := int(numCreated.Add(1))
	if name == "" {
		name = "Thread" + strconv.Itoa(seq)
	}

	t := &Thread{
		task:     task,
		name:     name,
		sequence: seq,
		logger:   slog.Default(),
		status:   &status{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the thread name
func (t *Thread) Name() string {
	return t.name
}

// Sequence returns the process-wide creation ordinal of this Thread
func (t *Thread) Sequence() int {
	return t.sequence
}

// Tid returns the OS thread id, or 0 if the thread has not begun running yet
func (t *Thread) Tid() int {
	return int(t.status.tid.Load())
}

// State returns the current lifecycle state
func (t *Thread) State() State {
	return State(t.status.state.Load())
}

// Started reports whether Start has been called successfully
func (t *Thread) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// Joined reports whether Join has been called
func (t *Thread) Joined() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.joined
}

// Done returns a channel closed when the thread body returns. It is never
// closed for a thread that was not started.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Start spawns the OS thread. Failing to obtain a thread is unrecoverable:
// it is logged and the process aborts.
func (t *Thread) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return fmt.Errorf("thread %s: %w", t.name, types.ErrAlreadyStarted)
	}
	if t.task == nil {
		return fmt.Errorf("thread %s: %w", t.name, types.ErrNilTask)
	}
	if !reserveThread() {
		fatal.Abort(t.logger, "Failed in thread creation",
			"thread", t.name,
			"live", LiveThreads(),
			"max", int(maxThreads.Load()),
			"error", types.ErrResourceExhausted)
		return fmt.Errorf("thread %s: %w", t.name, types.ErrResourceExhausted)
	}

	t.started = true
	data := &threadData{
		task:   t.task,
		name:   t.name,
		logger: t.logger,
		status: weak.Make(t.status),
		done:   t.done,
	}
	go data.run()
	return nil
}

// Join blocks until the thread body returns. It may be called once, after Start.
func (t *Thread) Join() error {
	t.mu.Lock()
	if err := t.checkJoinable(); err != nil {
		t.mu.Unlock()
		return err
	}
	t.joined = true
	t.mu.Unlock()

	<-t.done
	return nil
}

// Detach gives up the right to join; the thread runs its task to
// completion on its own.
func (t *Thread) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkJoinable(); err != nil {
		return err
	}
	t.detached = true
	return nil
}

func (t *Thread) checkJoinable() error {
	switch {
	case !t.started:
		return fmt.Errorf("thread %s: %w", t.name, types.ErrNotStarted)
	case t.joined:
		return fmt.Errorf("thread %s: %w", t.name, types.ErrAlreadyJoined)
	case t.detached:
		return fmt.Errorf("thread %s: %w", t.name, types.ErrDetached)
	}
	return nil
}

// threadData is everything the spawned thread needs. It refers back to the
// handle's status weakly so a dropped handle can be collected while its
// thread still runs.
type threadData struct {
	task   types.Task
	name   string
	tid    int
	logger *slog.Logger
	status weak.Pointer[status]
	done   chan struct{}
}

func (d *threadData) run() {
	// never unlocked: the OS thread terminates when this goroutine returns
	runtime.LockOSThread()
	defer close(d.done)
	defer liveThreads.Add(-1)

	d.tid = gettid()
	if d.tid == 0 {
		d.tid = int(pseudoTid.Add(1))
	}
	if s := d.status.Value(); s != nil {
		s.tid.Store(int32(d.tid))
		s.state.Store(int32(StateRunning))
	}

	names.Store(d.tid, d.name)
	defer names.Delete(d.tid)

	if err := setThreadName(d.name); err != nil {
		d.logger.Debug("failed to set OS thread name", "thread", d.name, "error", err)
	}

	defer d.recoverPanic()
	d.task()
	d.setState(StateFinished)
}

// setState publishes state to the handle and, once the task has ended,
// renames the current thread after it.
func (d *threadData) setState(state State) {
	if state == StateFinished || state == StateCrashed {
		names.Store(d.tid, state.String())
	}
	if s := d.status.Value(); s != nil {
		s.state.Store(int32(state))
	}
}

// recoverPanic aborts on errors and re-panics anything else so the runtime
// reports it; a panic is never swallowed.
func (d *threadData) recoverPanic() {
	r := recover()
	if r == nil {
		return
	}
	d.setState(StateCrashed)

	err, ok := r.(error)
	if !ok {
		d.logger.Error("unknown panic caught in thread",
			"thread", d.name,
			"tid", d.tid,
			"value", fmt.Sprintf("%v", r))
		panic(r)
	}

	args := []any{"thread", d.name, "tid", d.tid, "reason", err.Error()}
	var tracer types.StackTracer
	if errors.As(err, &tracer) {
		args = append(args, "stack", tracer.StackTrace())
	}
	fatal.Abort(d.logger, "exception caught in thread", args...)
}
