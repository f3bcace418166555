// Package clock provides the injected time source and the interval
// arithmetic used by every timer in the session core. Durations are
// always recomputed from absolute instants so that an arbitrary process
// suspension yields correct values on the first observation after
// resume.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source injected into the engine and journal.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a settable clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Elapsed is the time since anchor, never negative.
func Elapsed(now, anchor time.Time) time.Duration {
	d := now.Sub(anchor)
	if d < 0 {
		return 0
	}
	return d
}

// Remaining is the time left of an interval anchored at anchor, clamped
// to [0, duration].
func Remaining(now, anchor time.Time, duration time.Duration) time.Duration {
	r := duration - Elapsed(now, anchor)
	if r < 0 {
		return 0
	}
	return r
}

// IsDue reports whether the interval anchored at anchor has fully
// elapsed.
func IsDue(now, anchor time.Time, duration time.Duration) bool {
	return Remaining(now, anchor, duration) == 0
}
