package common

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the source of time for everything that waits or expires,
// so tests can drive it by hand
type Clock = clockwork.Clock

func RealClock() Clock {
	return clockwork.NewRealClock()
}

// Sleep waits for the provided duration on the clock, returning early
// with the context error if the context is done first
func Sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(d):
		return nil
	}
}

// FakeClock only moves when told to, except that After and Sleep move it
// forward by the requested duration and return at once. Sleeping loops
// then run to completion in a single goroutine
type FakeClock struct {
	*clockwork.FakeClock
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{clockwork.NewFakeClockAt(now)}
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	ch := c.FakeClock.After(d)
	c.FakeClock.Advance(d)
	return ch
}

func (c *FakeClock) Sleep(d time.Duration) {
	c.FakeClock.Advance(d)
}
