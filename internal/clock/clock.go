package clock

import "time"

// Clock abstracts wall-clock reads so time-based rules can be tested.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// AnchorClock always returns the same instant.
type AnchorClock struct {
	anchor time.Time
}

// NewAnchorClock creates an AnchorClock. If t is the zero value, the current
// UTC time is used.
func NewAnchorClock(t time.Time) AnchorClock {
	if t.IsZero() {
		return AnchorClock{anchor: time.Now().UTC()}
	}
	return AnchorClock{anchor: t.UTC()}
}

func (c AnchorClock) Now() time.Time { return c.anchor }

// FakeClock is a settable clock for tests.
type FakeClock struct {
	NowFn func() time.Time
	now   time.Time
}

// NewFakeClock returns a FakeClock frozen at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (f *FakeClock) Now() time.Time {
	if f.NowFn != nil {
		return f.NowFn()
	}
	return f.now
}

// Advance moves the fake clock forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Set moves the fake clock to t.
func (f *FakeClock) Set(t time.Time) {
	f.now = t
}
