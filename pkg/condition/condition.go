// Package condition provides a condition variable bound to a single mutex
// for its whole lifetime, with a bounded wait that reports timeouts.
package condition

import (
	"sync"
	"time"

	"github.com/jzx17/gothreads/pkg/types"
)

// Condition is a condition variable bound to one externally owned locker.
// Callers must hold the locker around Wait, WaitFor and, by convention,
// Notify and NotifyAll. Spurious wakeups are possible; re-check the
// predicate in a loop.
type Condition struct {
	l     sync.Locker
	clock types.Clock

	// mu guards waiters only, never held while blocking
	mu      sync.Mutex
	waiters []chan struct{}
}

// New creates a Condition bound to l
func New(l sync.Locker) *Condition {
	return NewWithClock(l, types.NewRealClock())
}

// NewWithClock creates a Condition bound to l whose timed waits use clock
func NewWithClock(l sync.Locker, clock types.Clock) *Condition {
	if l == nil {
		panic("condition: nil locker")
	}
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &Condition{l: l, clock: clock}
}

// Locker returns the bound locker
func (c *Condition) Locker() sync.Locker {
	return c.l
}

// Wait atomically unlocks the bound locker and suspends the caller until
// notified, then locks it again before returning.
func (c *Condition) Wait() {
	ch := c.enqueue()
	c.l.Unlock()
	<-ch
	c.l.Lock()
}

// WaitFor is Wait bounded by d. It returns true if the wait ended because
// the timeout elapsed and false if the caller was notified.
func (c *Condition) WaitFor(d time.Duration) bool {
	if d <= 0 {
		return true
	}

	ch := c.enqueue()
	// created before unlocking so a caller observing the released lock
	// knows the deadline is already armed
	timer := c.clock.NewTimer(d)
	c.l.Unlock()

	timedOut := false
	select {
	case <-ch:
		timer.Stop()
	case <-timer.C():
		// a notifier that already dequeued us has handed over its wakeup
		timedOut = c.remove(ch)
	}

	c.l.Lock()
	return timedOut
}

// WaitForSeconds is WaitFor with the timeout expressed in seconds
func (c *Condition) WaitForSeconds(seconds float64) bool {
	return c.WaitFor(time.Duration(seconds * float64(time.Second)))
}

// Notify wakes the longest waiting caller, if any
func (c *Condition) Notify() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.waiters) == 0 {
		return
	}
	ch := c.waiters[0]
	c.waiters[0] = nil
	c.waiters = c.waiters[1:]
	close(ch)
}

// NotifyAll wakes every waiting caller
func (c *Condition) NotifyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.waiters {
		close(ch)
	}
	c.waiters = nil
}

// Waiters returns the number of callers currently blocked
func (c *Condition) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *Condition) enqueue() chan struct{} {
	ch := make(chan struct{})
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()
	return ch
}

// remove drops ch from the wait list and reports whether it was still there
func (c *Condition) remove(ch chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}
