package common

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Statuses documented by the Riot API. Anything else is unexpected
var statuses = map[int]string{
	http.StatusOK:                   "ok",
	http.StatusBadRequest:           "bad request",
	http.StatusUnauthorized:         "unauthorized",
	http.StatusForbidden:            "forbidden, check the api key",
	http.StatusNotFound:             "data not found",
	http.StatusMethodNotAllowed:     "method not allowed",
	http.StatusUnsupportedMediaType: "unsupported media type",
	http.StatusTooManyRequests:      "rate limit exceeded",
	http.StatusInternalServerError:  "internal server error",
	http.StatusBadGateway:           "bad gateway",
	http.StatusServiceUnavailable:   "service unavailable",
	http.StatusGatewayTimeout:       "gateway timeout",
}

type Proxy struct {
	header      map[string]string
	client      *http.Client
	rateLimiter *RateLimiter
	metrics     *Metrics
}

func NewProxy(header map[string]string, rateLimiter *RateLimiter, metrics *Metrics) *Proxy {
	return &Proxy{header: header, client: &http.Client{}, rateLimiter: rateLimiter, metrics: metrics}
}

// Make a GET request to the provided url once the rate limiter allows it.
// Any failure, including a status other than 200, returns nil: callers
// treat the result as absent
func (proxy *Proxy) Request(ctx context.Context, url string) []byte {

	if proxy.rateLimiter != nil {
		if err := proxy.rateLimiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("Rate limiter did not allow the request")
			return nil
		}
	}

	// Create the request and add the header
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not create request for url %s", url))
		return nil
	}
	for key, value := range proxy.header {
		request.Header.Set(key, value)
	}

	// Perform the request
	res, err := proxy.client.Do(request)
	if err != nil {
		log.Error().Err(err).Msg("Could not perform request")
		proxy.metrics.RiotRequest(0)
		return nil
	}
	defer res.Body.Close()
	proxy.metrics.RiotRequest(res.StatusCode)

	// Check if the status of the request is understood
	message, ok := statuses[res.StatusCode]
	if !ok {
		log.Error().Msg(fmt.Sprintf("Status code of request (%d) is not understood", res.StatusCode))
		return nil
	}
	log.Debug().Msg(fmt.Sprintf("%d %s", res.StatusCode, message))

	switch res.StatusCode {
	case http.StatusOK:
		// Read the response
		stream, err := io.ReadAll(res.Body)
		if err != nil {
			log.Debug().Msg(fmt.Sprintf("Could not extract the response for url %s", url))
			return nil
		}
		return stream
	case http.StatusTooManyRequests:
		if proxy.rateLimiter != nil {
			proxy.rateLimiter.ReceivedRateLimit()
		}
		return nil
	default:
		return nil
	}
}
