package engine

import "time"

// Clock supplies tap moments.
// Implemented by SystemClock (production) and testutil.SteppingClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// monotonicClock wraps a Clock so every moment it returns is strictly after
// the previous one (and after any moment passed to Observe).
//
// Not safe for concurrent use: only the Run goroutine calls it.
type monotonicClock struct {
	base Clock
	last time.Time
}

func newMonotonicClock(base Clock) *monotonicClock {
	return &monotonicClock{base: base}
}

// Now returns max(base.Now(), last+1ns) in UTC.
func (c *monotonicClock) Now() time.Time {
	now := c.base.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return now
}

// Observe records a moment already persisted so later moments sort after it.
func (c *monotonicClock) Observe(t time.Time) {
	if t.After(c.last) {
		c.last = t.UTC()
	}
}
