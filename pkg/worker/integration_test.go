package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/gothreads/pkg/condition"
	"github.com/jzx17/gothreads/pkg/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestThreadPool_HighLoad high load integration test
func TestThreadPool_HighLoad(t *testing.T) {
	pool := newTestPool(t, &Config{
		Name:         "load",
		MaxQueueSize: 64, // small bound so producers hit backpressure
	})
	require.NoError(t, pool.Start(8))

	// Submit large number of tasks from several producers
	const (
		producers   = 4
		perProducer = 2500
	)
	var completed int64
	var wg sync.WaitGroup

	start := time.Now()
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := pool.Run(func() {
					atomic.AddInt64(&completed, 1)
				}); err != nil {
					t.Errorf("run: %v", err)
					return
				}
				if size := pool.QueueSize(); size > 64 {
					t.Errorf("queue size %d exceeds bound", size)
					return
				}
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&completed) == producers*perProducer
	}, 10*time.Second, time.Millisecond)
	duration := time.Since(start)

	t.Logf("Processed %d tasks in %v", producers*perProducer, duration)
	t.Logf("Throughput: %.2f tasks/second", float64(producers*perProducer)/duration.Seconds())

	// Verify pool state
	assert.True(t, pool.IsRunning())
	assert.Equal(t, int64(producers*perProducer), pool.Stats().Submitted)
	require.NoError(t, pool.Stop())
}

// TestThreadPool_LoopThreadOffload models an event loop thread handing
// blocking work to the pool and waiting for the results under its own mutex.
func TestThreadPool_LoopThreadOffload(t *testing.T) {
	pool := newTestPool(t, &Config{Name: "offload", MaxQueueSize: 4})
	require.NoError(t, pool.Start(3))

	const jobs = 20

	var mu sync.Mutex
	allDone := condition.New(&mu)
	pending := jobs
	results := make([]int, jobs)

	loop := thread.New(func() {
		for i := 0; i < jobs; i++ {
			n := i
			if err := pool.Run(func() {
				time.Sleep(time.Millisecond)
				mu.Lock()
				results[n] = n * n
				pending--
				if pending == 0 {
					allDone.NotifyAll()
				}
				mu.Unlock()
			}); err != nil {
				t.Errorf("run: %v", err)
				return
			}
		}

		mu.Lock()
		defer mu.Unlock()
		for pending > 0 {
			if allDone.WaitForSeconds(5) {
				t.Errorf("timed out with %d jobs pending", pending)
				return
			}
		}
	}, "event-loop")

	require.NoError(t, loop.Start())
	require.NoError(t, loop.Join())
	assert.Equal(t, thread.StateFinished, loop.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, pending)
	for i, r := range results {
		assert.Equal(t, i*i, r)
	}
}
