// Package clock abstracts "now" so transaction commit instants can be
// controlled in tests. Production code injects System; tests inject a Fake
// and advance it across day and retention-window boundaries.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. Implementations must return UTC times.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a controllable clock for tests. It never moves on its own; tests
// advance it explicitly, so successive commit instants are deterministic.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a fake clock pinned at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d. Negative durations are allowed so
// tests can exercise clock-skew handling.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// AdvanceDays moves the clock forward by whole calendar days.
func (f *Fake) AdvanceDays(days int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.AddDate(0, 0, days)
}

// Set pins the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
