package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"

	"github.com/jzx17/gothreads/pkg/condition"
	"github.com/jzx17/gothreads/pkg/thread"
	"github.com/jzx17/gothreads/pkg/types"
)

// ThreadPool runs tasks on a fixed set of OS threads fed by one FIFO queue.
// When the queue is bounded, producers block in Run until a worker frees a
// slot.
type ThreadPool struct {
	name   string
	clock  types.Clock
	logger *slog.Logger

	// mu guards everything below it; every condition is bound to it
	mu                 deadlock.Mutex
	notEmpty           *condition.Condition
	notFull            *condition.Condition
	drained            *condition.Condition
	state              types.PoolState
	maxQueueSize       int
	threadInitCallback types.Task
	threads            []*thread.Thread
	queue              *queue.Queue

	metrics         *Metrics
	backpressureLog rate.Sometimes

	// stopped is closed once the first Stop has joined every worker
	stopped chan struct{}

	// statistics (atomic)
	submitted     int64
	executed      int64
	rejected      int64
	blocked       int64
	executionTime int64 // total nanoseconds
}

var _ types.Executor = (*ThreadPool)(nil)

// NewThreadPool creates a new thread pool in the Idle state
func NewThreadPool(config *Config) (*ThreadPool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	name := config.Name
	if name == "" {
		name = "ThreadPool"
	}
	clock := config.Clock
	if clock == nil {
		clock = types.NewRealClock()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool := &ThreadPool{
		name:               name,
		clock:              clock,
		logger:             logger.With("pool", name),
		maxQueueSize:       config.MaxQueueSize,
		threadInitCallback: config.ThreadInitCallback,
		queue:              queue.New(),
		backpressureLog:    rate.Sometimes{First: 1, Interval: time.Second},
		stopped:            make(chan struct{}),
	}
	pool.notEmpty = condition.NewWithClock(&pool.mu, clock)
	pool.notFull = condition.NewWithClock(&pool.mu, clock)
	pool.drained = condition.NewWithClock(&pool.mu, clock)

	if config.Registerer != nil {
		metrics, err := newMetrics(config.Registerer, config.MetricsPrefix, name)
		if err != nil {
			return nil, err
		}
		pool.metrics = metrics
	}

	return pool, nil
}

// Name returns the pool name
func (p *ThreadPool) Name() string {
	return p.name
}

// SetMaxQueueSize bounds the queue; 0 means unbounded. Only allowed before Start.
func (p *ThreadPool) SetMaxQueueSize(maxSize int) error {
	if maxSize < 0 {
		return fmt.Errorf("%w: max queue size must not be negative, got %d", types.ErrInvalidConfig, maxSize)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != types.PoolIdle {
		return fmt.Errorf("set max queue size: %w", types.ErrPoolRunning)
	}
	p.maxQueueSize = maxSize
	return nil
}

// MaxQueueSize returns the queue bound, 0 means unbounded
func (p *ThreadPool) MaxQueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxQueueSize
}

// SetThreadInitCallback sets a task every worker runs once before taking
// work. Only allowed before Start.
func (p *ThreadPool) SetThreadInitCallback(cb types.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != types.PoolIdle {
		return fmt.Errorf("set thread init callback: %w", types.ErrPoolRunning)
	}
	p.threadInitCallback = cb
	return nil
}

// Start spawns numThreads workers. With zero workers the pool runs every
// task synchronously inside Run.
func (p *ThreadPool) Start(numThreads int) error {
	if numThreads < 0 {
		return fmt.Errorf("%w: number of threads must not be negative, got %d", types.ErrInvalidConfig, numThreads)
	}

	p.mu.Lock()
	switch p.state {
	case types.PoolRunning:
		p.mu.Unlock()
		return fmt.Errorf("thread pool %s: %w", p.name, types.ErrAlreadyStarted)
	case types.PoolStopped:
		p.mu.Unlock()
		return fmt.Errorf("start: %w", types.ErrPoolStopped)
	}

	p.state = types.PoolRunning
	p.threads = make([]*thread.Thread, 0, numThreads)
	for i := 0; i < numThreads; i++ {
		th := thread.New(p.runInThread, p.name+strconv.Itoa(i+1), thread.WithLogger(p.logger))
		p.threads = append(p.threads, th)
	}
	// started under the lock so Stop never sees a half-built worker set
	for i, th := range p.threads {
		if err := th.Start(); err != nil {
			p.threads = p.threads[:i]
			p.mu.Unlock()
			return fmt.Errorf("start worker %s: %w", th.Name(), err)
		}
	}
	initCallback := p.threadInitCallback
	p.mu.Unlock()

	p.metrics.setWorkers(numThreads)
	p.logger.Debug("thread pool started", "threads", numThreads, "max_queue_size", p.MaxQueueSize())

	if numThreads == 0 && initCallback != nil {
		initCallback()
	}
	return nil
}

// Run submits a task. It blocks while the bounded queue is full and fails
// with ErrPoolStopped if the pool stops in the meantime.
func (p *ThreadPool) Run(task types.Task) error {
	if task == nil {
		return types.ErrNilTask
	}

	p.mu.Lock()
	if err := p.checkRunning(); err != nil {
		p.mu.Unlock()
		return err
	}

	if len(p.threads) == 0 {
		p.mu.Unlock()
		atomic.AddInt64(&p.submitted, 1)
		p.metrics.incSubmitted()
		p.execute(task)
		return nil
	}

	if p.isFull() {
		atomic.AddInt64(&p.blocked, 1)
		p.metrics.incBlocked()
		p.backpressureLog.Do(func() {
			p.logger.Debug("producer blocked on full queue", "queue_size", p.queue.Length())
		})
	}
	for p.isFull() && p.state == types.PoolRunning {
		p.notFull.Wait()
	}
	if err := p.checkRunning(); err != nil {
		p.mu.Unlock()
		return err
	}

	p.queue.Add(task)
	p.metrics.setQueueDepth(p.queue.Length())
	p.notEmpty.Notify()
	p.mu.Unlock()

	atomic.AddInt64(&p.submitted, 1)
	p.metrics.incSubmitted()
	return nil
}

// checkRunning must be called with mu held
func (p *ThreadPool) checkRunning() error {
	switch p.state {
	case types.PoolRunning:
		return nil
	case types.PoolIdle:
		atomic.AddInt64(&p.rejected, 1)
		p.metrics.incRejected()
		return types.ErrPoolNotStarted
	default:
		atomic.AddInt64(&p.rejected, 1)
		p.metrics.incRejected()
		return types.ErrPoolStopped
	}
}

// isFull must be called with mu held
func (p *ThreadPool) isFull() bool {
	return p.maxQueueSize > 0 && p.queue.Length() >= p.maxQueueSize
}

// take blocks until a task is available; nil means the pool stopped
func (p *ThreadPool) take() types.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.queue.Length() == 0 && p.state == types.PoolRunning {
		p.notEmpty.Wait()
	}
	if p.state != types.PoolRunning {
		return nil
	}

	task := p.queue.Remove().(types.Task)
	depth := p.queue.Length()
	if p.maxQueueSize > 0 {
		p.notFull.Notify()
	}
	if depth == 0 {
		p.drained.NotifyAll()
	}
	p.metrics.setQueueDepth(depth)
	return task
}

func (p *ThreadPool) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == types.PoolRunning
}

// runInThread is the body of every worker thread
func (p *ThreadPool) runInThread() {
	p.mu.Lock()
	initCallback := p.threadInitCallback
	p.mu.Unlock()

	if initCallback != nil {
		initCallback()
	}
	for p.running() {
		if task := p.take(); task != nil {
			p.execute(task)
		}
	}
}

// execute runs a task outside the lock; a panic escapes to the thread body
func (p *ThreadPool) execute(task types.Task) {
	start := p.clock.Now()
	task()
	elapsed := p.clock.Since(start)

	atomic.AddInt64(&p.executed, 1)
	atomic.AddInt64(&p.executionTime, int64(elapsed))
	p.metrics.observeTask(elapsed)
}

// Stop stops the pool and joins every worker. Tasks still queued are
// discarded, not executed; wait with WaitEmpty first to drain them. A task
// currently executing is not interrupted. Calling Stop again waits for the
// first call to finish joining and returns nil.
func (p *ThreadPool) Stop() error {
	p.mu.Lock()
	if tid := thread.CurrentTid(); tid != 0 {
		for _, th := range p.threads {
			if th.Tid() == tid && th.State() == thread.StateRunning {
				p.mu.Unlock()
				return fmt.Errorf("stop %s from %s: %w", p.name, th.Name(), types.ErrStopFromWorker)
			}
		}
	}
	if p.state == types.PoolStopped {
		p.mu.Unlock()
		<-p.stopped
		return nil
	}

	p.state = types.PoolStopped
	p.notEmpty.NotifyAll()
	p.notFull.NotifyAll()
	p.drained.NotifyAll()
	threads := p.threads
	discarded := p.queue.Length()
	p.mu.Unlock()

	var errs []error
	for _, th := range threads {
		if err := th.Join(); err != nil {
			errs = append(errs, err)
		}
	}

	close(p.stopped)

	p.metrics.setWorkers(0)
	if discarded > 0 {
		p.logger.Warn("thread pool stopped with queued tasks", "discarded", discarded)
	}
	p.logger.Debug("thread pool stopped", "threads", len(threads))
	return errors.Join(errs...)
}

// WaitEmpty blocks until the queue is empty, the pool stops, or timeout
// elapses. It reports whether the queue was observed empty. An empty queue
// does not mean the last taken tasks have finished executing.
func (p *ThreadPool) WaitEmpty(timeout time.Duration) bool {
	deadline := p.clock.Now().Add(timeout)

	p.mu.Lock()
	defer p.mu.Unlock()

	for p.queue.Length() > 0 && p.state == types.PoolRunning {
		remaining := deadline.Sub(p.clock.Now())
		if remaining <= 0 {
			return false
		}
		p.drained.WaitFor(remaining)
	}
	return p.queue.Length() == 0
}

// QueueSize returns the number of queued tasks. The value is advisory and
// may change as soon as it is returned. After Stop it is the number of
// discarded tasks.
func (p *ThreadPool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Length()
}

// Size returns the number of worker threads
func (p *ThreadPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.threads)
}

// State returns the lifecycle state
func (p *ThreadPool) State() types.PoolState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsRunning checks if the pool accepts tasks
func (p *ThreadPool) IsRunning() bool {
	return p.running()
}

// Stats gets basic thread pool statistics
func (p *ThreadPool) Stats() types.PoolStats {
	p.mu.Lock()
	stats := types.PoolStats{
		Name:         p.name,
		State:        p.state,
		Workers:      len(p.threads),
		QueueSize:    p.queue.Length(),
		MaxQueueSize: p.maxQueueSize,
	}
	p.mu.Unlock()

	stats.Submitted = atomic.LoadInt64(&p.submitted)
	stats.Executed = atomic.LoadInt64(&p.executed)
	stats.Rejected = atomic.LoadInt64(&p.rejected)
	stats.Blocked = atomic.LoadInt64(&p.blocked)
	if stats.Executed > 0 {
		stats.AverageExecutionTime = time.Duration(atomic.LoadInt64(&p.executionTime) / stats.Executed)
	}
	return stats
}
