package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time for FixedClock: 2024-01-15 09:30:00 UTC.
var Epoch = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

// FixedClock is a manually advanced clock for tests.
//
// Each call to Now returns the current instant and then moves it forward by
// the configured step, so consecutive submissions get distinct timestamps.
// A zero step freezes time.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFixedClock creates a clock starting at start that advances by step on
// every Now call.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{now: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the current instant without advancing.
func (c *FixedClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
