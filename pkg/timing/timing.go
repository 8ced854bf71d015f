// Package timing provides the millisecond counter used for deadlines.
//
// The counter is a free-running 32-bit millisecond value which wraps
// every 2^32 ms (about 49.7 days). Deadlines are compared with signed
// subtraction so they keep working across the wrap.
package timing

import (
	"sync"
	"time"
)

// Millis is a reading of the millisecond counter.
type Millis uint32

// Add returns the counter value d after m.
func (m Millis) Add(d time.Duration) Millis {
	return m + Millis(uint32(d/time.Millisecond))
}

// Reached reports whether the deadline m has been reached at now.
func (m Millis) Reached(now Millis) bool {
	return int32(uint32(m)-uint32(now)) <= 0
}

// Until returns the time left before the deadline m, zero if reached.
func (m Millis) Until(now Millis) time.Duration {
	if m.Reached(now) {
		return 0
	}
	return time.Duration(uint32(m)-uint32(now)) * time.Millisecond
}

// Clock provides the millisecond counter and blocking delays.
type Clock interface {
	Now() Millis
	Sleep(time.Duration)
}

// DeadlineAfter computes the deadline window after the current time.
func DeadlineAfter(c Clock, window time.Duration) Millis {
	return c.Now().Add(window)
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock starting at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now implements Clock.
func (c *SystemClock) Now() Millis {
	return Millis(uint32(time.Since(c.start) / time.Millisecond))
}

// Sleep implements Clock.
func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// ManualClock only moves when told to. Sleep advances the clock
// immediately, so code sleeping on it runs without real delays.
type ManualClock struct {
	// OnSleep is invoked after every Sleep with the new time.
	OnSleep func(Millis)

	now  Millis
	lock sync.Mutex
}

// NewManualClock creates a ManualClock at the given time.
func NewManualClock(at Millis) *ManualClock {
	return &ManualClock{now: at}
}

// Now implements Clock.
func (c *ManualClock) Now() Millis {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Sleep implements Clock.
func (c *ManualClock) Sleep(d time.Duration) {
	now := c.Advance(d)
	if fn := c.OnSleep; fn != nil {
		fn(now)
	}
}

// Advance moves the clock forward and returns the new time.
func (c *ManualClock) Advance(d time.Duration) Millis {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
