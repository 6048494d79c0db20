// Package testutil provides deterministic clocks for reproducible tests
// and golden trace comparison.
package testutil

import (
	"sync"
	"time"
)

// DeterministicClock yields a fixed, stepping sequence of instants.
//
// Each call to Now advances the clock by a fixed step, so successive
// updatedAt stamps are distinct but fully reproducible across runs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// defaultEpoch is an arbitrary fixed instant used by NewDeterministicClock.
var defaultEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewDeterministicClock creates a clock starting at the default epoch,
// advancing one second per call.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(defaultEpoch, time.Second)
}

// NewDeterministicClockAt creates a clock with an explicit start and step.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{next: start, step: step}
}

// Now returns the current instant and advances the clock one step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

// Peek returns the instant the next Now call will yield, without advancing.
func (c *DeterministicClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset rewinds the clock to the given start. Used for test reuse.
func (c *DeterministicClock) Reset(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = start
}
