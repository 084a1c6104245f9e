package ledger

import (
	"sync"
	"time"
)

// Clock supplies the consensus timestamp used for auction time-window checks.
// Timestamps are unix seconds, coarse-grained, and monotonic non-decreasing.
// The clock is an injected dependency so time-window logic is testable with
// synthetic clocks.
type Clock interface {
	Now() int64
}

// SystemClock reads wall-clock time truncated to whole seconds.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// ManualClock is a test clock advanced explicitly. It never moves backwards,
// matching the monotonicity guarantee of a block timestamp.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a manual clock starting at the given unix time.
func NewManualClock(now int64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetNow moves the clock to the given time. Attempts to move it backwards are
// ignored, keeping the clock monotonic non-decreasing.
func (c *ManualClock) SetNow(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now > c.now {
		c.now = now
	}
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now += d
	}
}
