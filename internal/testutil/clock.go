// Package testutil provides deterministic clocks and id generators for tests
// and scenario replay.
package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first moment a SteppingClock returns unless told
// otherwise.
var DefaultEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// SteppingClock is a thread-safe clock that advances by a fixed step on
// every call to Now.
//
// Unlike engine.SystemClock, SteppingClock can be reset for test reuse.
// This enables the same scenario to run multiple times with identical moments.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SteppingClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewSteppingClock creates a clock whose first Now returns start and each
// later Now returns the previous value plus step.
//
// A zero start means DefaultEpoch; a non-positive step means one second.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	if start.IsZero() {
		start = DefaultEpoch
	}
	if step <= 0 {
		step = time.Second
	}
	return &SteppingClock{start: start.UTC(), step: step}
}

// Now returns the next moment.
//
// Implements engine.Clock interface.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Peek returns the moment the next Now will return, without advancing.
func (c *SteppingClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(c.calls) * c.step)
}

// Calls returns how many times Now has been called.
func (c *SteppingClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to its start.
//
// After Reset(), the next call to Now() returns start again.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
