// Package clock abstracts the wall clock so scheduling decisions are
// deterministic in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fake is a manually advanced clock for tests. Not safe for concurrent
// use; tests drive it from a single goroutine.
type Fake struct {
	Current time.Time
}

// NewFake returns a Fake pinned to t.
func NewFake(t time.Time) *Fake {
	return &Fake{Current: t}
}

func (f *Fake) Now() time.Time { return f.Current }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
