package valr

import (
	"context"

	"golang.org/x/time/rate"

	"valrgo/config"
)

// Gate is the admission control consulted before every request. Timeout and
// backoff policy live behind this interface, not in the client.
type Gate interface {
	Wait(ctx context.Context, weight int) error
}

type rateGate struct {
	limiter *rate.Limiter
}

// newRateGate builds the default token bucket gate. VALR allows 1000 calls
// per minute, so the fallback is 16 requests per second.
func newRateGate(cfg config.RateLimitConfig) Gate {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 16
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &rateGate{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (g *rateGate) Wait(ctx context.Context, weight int) error {
	if weight < 1 {
		weight = 1
	}
	return g.limiter.WaitN(ctx, weight)
}
