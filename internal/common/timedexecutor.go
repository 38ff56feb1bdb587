package common

import (
	"context"
	"time"
)

// Give the timed executor a task and a timeout.
// Call the execute function from time to time.
// If the function gets called when the timeout has been reached,
// the provided task will execute. If not, the call will do nothing
type TimedExecutor struct {
	stopwatch Stopwatch
	task      func(ctx context.Context)
}

// Create a timed executor provided a timeout and a task
func NewTimedExecutor(timeout time.Duration, clock Clock, task func(ctx context.Context)) TimedExecutor {
	return TimedExecutor{NewStopwatch(timeout, clock), task}
}

// Execute the task if the timeout has been reached, else do nothing.
// Returns true if the task ran
func (te *TimedExecutor) Execute(ctx context.Context) bool {
	if stopped, _ := te.stopwatch.Stopped(); !stopped {
		return false
	}
	te.stopwatch.Start()
	te.task(ctx)
	return true
}

// Time left until the next execution
func (te *TimedExecutor) Remaining() time.Duration {
	_, remaining := te.stopwatch.Stopped()
	return remaining
}
