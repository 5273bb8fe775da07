// Package testutil provides deterministic helpers shared by tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a thread-safe deterministic time source for tests.
//
// Each call to Now returns the current reading and advances the clock by a
// fixed step, so code that records timestamps or durations produces identical
// values on every run.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock creates a clock starting at start, advancing by step per reading.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, step: step}
}

// Now returns the current reading and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Reset rewinds the clock to start for test reuse.
func (c *Clock) Reset(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start
}
