package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Default pause after the server answered with a rate limit
const DefaultRetryAfter = 10 * time.Second

type RateLimiter struct {
	limiters []*rate.Limiter // One per restriction
	mu       sync.Mutex
	backoff  Stopwatch // Running while we are paused by a 429
	clock    Clock
}

func NewRateLimiter(restrictions []Restriction, retryAfter time.Duration, clock Clock) *RateLimiter {
	rl := &RateLimiter{clock: clock, backoff: NewStopwatch(retryAfter, clock)}
	for _, restriction := range restrictions {
		rl.limiters = append(rl.limiters, restriction.limiter())
	}
	return rl
}

// Block until every restriction allows one more request,
// or the context is done
func (rl *RateLimiter) Wait(ctx context.Context) error {

	// Respect a pause imposed by the server first
	rl.mu.Lock()
	stopped, remaining := rl.backoff.Stopped()
	rl.mu.Unlock()
	if !stopped {
		log.Warn().Msg(fmt.Sprintf("Request delayed %.1f seconds after a rate limit", remaining.Seconds()))
		if err := Sleep(ctx, rl.clock, remaining); err != nil {
			return err
		}
	}

	for _, limiter := range rl.limiters {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (rl *RateLimiter) ReceivedRateLimit() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.backoff.Start()
}
