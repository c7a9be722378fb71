package condition

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/gothreads/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForWaiters(t *testing.T, cond *Condition, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return cond.Waiters() == n
	}, time.Second, time.Millisecond)
}

func TestNew(t *testing.T) {
	var mu sync.Mutex
	cond := New(&mu)

	assert.Same(t, &mu, cond.Locker())
	assert.Equal(t, 0, cond.Waiters())

	assert.Panics(t, func() {
		New(nil)
	})
}

func TestCondition_WaitNotify(t *testing.T) {
	var mu sync.Mutex
	cond := New(&mu)
	ready := false
	done := make(chan struct{})

	go func() {
		defer close(done)
		mu.Lock()
		defer mu.Unlock()
		for !ready {
			cond.Wait()
		}
	}()

	waitForWaiters(t, cond, 1)

	mu.Lock()
	ready = true
	cond.Notify()
	mu.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
	assert.Equal(t, 0, cond.Waiters())
}

func TestCondition_NotifyWithoutWaiters(t *testing.T) {
	var mu sync.Mutex
	cond := New(&mu)

	mu.Lock()
	cond.Notify()
	cond.NotifyAll()
	mu.Unlock()

	assert.Equal(t, 0, cond.Waiters())
}

func TestCondition_NotifyWakesOne(t *testing.T) {
	var mu sync.Mutex
	cond := New(&mu)
	var woken int64

	for i := 0; i < 2; i++ {
		go func() {
			mu.Lock()
			cond.Wait()
			atomic.AddInt64(&woken, 1)
			mu.Unlock()
		}()
	}
	waitForWaiters(t, cond, 2)

	mu.Lock()
	cond.Notify()
	mu.Unlock()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&woken) == 1
	}, time.Second, time.Millisecond)
	assert.Never(t, func() bool {
		return atomic.LoadInt64(&woken) > 1
	}, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 1, cond.Waiters())

	mu.Lock()
	cond.NotifyAll()
	mu.Unlock()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&woken) == 2
	}, time.Second, time.Millisecond)
}

func TestCondition_NotifyAll(t *testing.T) {
	const waiters = 8

	var mu sync.Mutex
	cond := New(&mu)
	ready := false

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			for !ready {
				cond.Wait()
			}
		}()
	}
	waitForWaiters(t, cond, waiters)

	mu.Lock()
	ready = true
	cond.NotifyAll()
	mu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not every waiter was woken")
	}
}

func TestCondition_NotifyOrder(t *testing.T) {
	var mu sync.Mutex
	cond := New(&mu)

	var orderMu sync.Mutex
	var order []int

	for i := 0; i < 3; i++ {
		id := i
		go func() {
			mu.Lock()
			cond.Wait()
			orderMu.Lock()
			order = append(order, id)
			orderMu.Unlock()
			mu.Unlock()
		}()
		waitForWaiters(t, cond, i+1)
	}

	for i := 0; i < 3; i++ {
		mu.Lock()
		cond.Notify()
		mu.Unlock()

		n := i + 1
		require.Eventually(t, func() bool {
			orderMu.Lock()
			defer orderMu.Unlock()
			return len(order) == n
		}, time.Second, time.Millisecond)
	}

	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestCondition_WaitForTimeout(t *testing.T) {
	mClock := testutils.NewMockClock(t)
	var mu sync.Mutex
	cond := NewWithClock(&mu, testutils.NewClockWrapper(mClock))

	result := make(chan bool, 1)
	go func() {
		mu.Lock()
		defer mu.Unlock()
		result <- cond.WaitFor(time.Second)
	}()
	waitForWaiters(t, cond, 1)

	// the lock is only released once the timer is armed
	mu.Lock()
	mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mClock.Advance(time.Second).MustWait(ctx)

	select {
	case timedOut := <-result:
		assert.True(t, timedOut)
	case <-time.After(2 * time.Second):
		t.Fatal("timed wait did not return")
	}
	assert.Equal(t, 0, cond.Waiters())
}

func TestCondition_WaitForNotified(t *testing.T) {
	mClock := testutils.NewMockClock(t)
	var mu sync.Mutex
	cond := NewWithClock(&mu, testutils.NewClockWrapper(mClock))

	result := make(chan bool, 1)
	go func() {
		mu.Lock()
		defer mu.Unlock()
		result <- cond.WaitFor(time.Hour)
	}()
	waitForWaiters(t, cond, 1)

	mu.Lock()
	cond.Notify()
	mu.Unlock()

	select {
	case timedOut := <-result:
		assert.False(t, timedOut)
	case <-time.After(2 * time.Second):
		t.Fatal("notified wait did not return")
	}
}

func TestCondition_WaitForSeconds(t *testing.T) {
	var mu sync.Mutex
	cond := New(&mu)

	mu.Lock()
	defer mu.Unlock()

	t.Run("non-positive timeout returns immediately", func(t *testing.T) {
		assert.True(t, cond.WaitForSeconds(0))
		assert.True(t, cond.WaitForSeconds(-1))
	})

	t.Run("elapses with real clock", func(t *testing.T) {
		start := time.Now()
		assert.True(t, cond.WaitForSeconds(0.02))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})
}

func TestCondition_BoundedBuffer(t *testing.T) {
	const (
		capacity = 2
		items    = 100
	)

	var mu sync.Mutex
	notEmpty := New(&mu)
	notFull := New(&mu)
	var buf []int
	var maxSeen int

	go func() {
		for i := 0; i < items; i++ {
			mu.Lock()
			for len(buf) == capacity {
				notFull.Wait()
			}
			buf = append(buf, i)
			if len(buf) > maxSeen {
				maxSeen = len(buf)
			}
			notEmpty.Notify()
			mu.Unlock()
		}
	}()

	received := make([]int, 0, items)
	for len(received) < items {
		mu.Lock()
		for len(buf) == 0 {
			notEmpty.Wait()
		}
		received = append(received, buf[0])
		buf = buf[1:]
		notFull.Notify()
		mu.Unlock()
	}

	for i, v := range received {
		assert.Equal(t, i, v)
	}
	assert.LessOrEqual(t, maxSeen, capacity)
}
