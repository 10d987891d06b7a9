package vault

import (
	"sync"
	"time"
)

const secondsPerDay = 86_400

// Clock supplies the commit-time timestamp for vault operations. Injected so
// the day-window behaviour is testable without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ManualClock is a settable clock for tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a manual clock pinned at the given instant.
func NewManualClock(at time.Time) *ManualClock {
	return &ManualClock{now: at.UTC()}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to the given instant.
func (c *ManualClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at.UTC()
}

// dayIndex buckets a timestamp into a coarse UTC day number. Spend counters
// reset when the index increases; this is fixed-boundary bucketing, not a
// rolling 24-hour window.
func dayIndex(t time.Time) int64 {
	return t.Unix() / secondsPerDay
}
