package rest

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedDoer waits on a token bucket before every request.
type RateLimitedDoer struct {
	base    HTTPDoer
	limiter *rate.Limiter
}

// NewRateLimitedDoer wraps base. A nil limiter disables waiting.
func NewRateLimitedDoer(base HTTPDoer, limiter *rate.Limiter) *RateLimitedDoer {
	return &RateLimitedDoer{base: base, limiter: limiter}
}

// Do blocks until the limiter admits the request or its context ends.
func (d *RateLimitedDoer) Do(req *http.Request) (*http.Response, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return d.base.Do(req)
}

// WithRateLimit returns an option limiting requests to rps with the given burst.
// rps <= 0 leaves the doer unlimited.
func WithRateLimit(rps float64, burst int) HTTPClientOption {
	return func(doer HTTPDoer) HTTPDoer {
		if rps <= 0 {
			return doer
		}
		if burst < 1 {
			burst = 1
		}
		return NewRateLimitedDoer(doer, rate.NewLimiter(rate.Limit(rps), burst))
	}
}
