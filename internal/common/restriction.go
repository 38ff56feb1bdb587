package common

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// A restriction means that only the specified number of requests
// are allowed for a specific time duration
type Restriction struct {
	Requests int
	Duration time.Duration
}

// Development keys at Riot
var DefaultRestrictions = []Restriction{
	{Requests: 20, Duration: time.Second},
	{Requests: 100, Duration: 2 * time.Minute},
}

// Token bucket equivalent of the restriction: the whole burst is
// available at once, and refills evenly over the duration
func (rest Restriction) limiter() *rate.Limiter {
	if rest.Requests <= 0 || rest.Duration <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(rest.Duration/time.Duration(rest.Requests)), rest.Requests)
}

func (rest Restriction) String() string {
	return fmt.Sprintf("%d requests every %s", rest.Requests, rest.Duration)
}
