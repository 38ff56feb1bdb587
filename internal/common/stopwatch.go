package common

import (
	"time"
)

// This stopwatch keeps track of time. You can set a timeout for it,
// make it start counting time, and ask it if the timeout has been reached
type Stopwatch struct {
	Timeout   time.Duration
	startTime time.Time
	Running   bool
	clock     Clock
}

func NewStopwatch(timeout time.Duration, clock Clock) Stopwatch {
	return Stopwatch{Timeout: timeout, clock: clock}
}

func (s *Stopwatch) Start() {
	s.Running = true
	s.startTime = s.clock.Now()
}

// Return the time elapsed since this stopwatch
// stopped (reached its timeout).
// Note that if the number is negative, the timeout still
// has not been reached
func (s *Stopwatch) TimeStopped() time.Duration {
	return s.clock.Now().Sub(s.startTime.Add(s.Timeout))
}

// Stopped reports whether the timeout has been reached, and if not,
// how long is left. A stopwatch that was never started counts as stopped
func (s *Stopwatch) Stopped() (bool, time.Duration) {
	if !s.Running {
		return true, 0
	}
	stopped := s.TimeStopped()
	if stopped >= 0 {
		return true, 0
	}
	return false, -stopped
}
