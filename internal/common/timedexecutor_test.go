package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimedExecutorRunsOncePerTimeout(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	runs := 0
	te := NewTimedExecutor(3*time.Hour, clock, func(context.Context) { runs++ })
	ctx := context.Background()

	// First call always executes
	assert.True(t, te.Execute(ctx))
	assert.Equal(t, 1, runs)

	clock.Advance(time.Hour)
	assert.False(t, te.Execute(ctx))
	assert.Equal(t, 2*time.Hour, te.Remaining())

	clock.Advance(2 * time.Hour)
	assert.True(t, te.Execute(ctx))
	assert.Equal(t, 2, runs)
}

func TestStopwatch(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	sw := NewStopwatch(10*time.Second, clock)

	stopped, _ := sw.Stopped()
	assert.True(t, stopped, "a stopwatch never started counts as stopped")

	sw.Start()
	clock.Advance(4 * time.Second)
	stopped, remaining := sw.Stopped()
	assert.False(t, stopped)
	assert.Equal(t, 6*time.Second, remaining)
	assert.Equal(t, -6*time.Second, sw.TimeStopped())

	clock.Advance(6 * time.Second)
	stopped, _ = sw.Stopped()
	assert.True(t, stopped)
}

func TestSleepHonoursContext(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	assert.NoError(t, Sleep(context.Background(), clock, time.Second))
	assert.Equal(t, time.Unix(1, 0), clock.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, clock, 0), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, clock, time.Minute), context.Canceled)
	assert.Equal(t, time.Unix(1, 0), clock.Now(), "a cancelled sleep does not wait")
}
