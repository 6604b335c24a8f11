package wikia

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateGate enforces a minimum interval between outbound requests. The
// underlying limiter has a burst of one, so reserving a slot and advancing
// the next deadline happen atomically: two concurrent callers can never
// both start within one interval.
type rateGate struct {
	mu      sync.Mutex
	limiter *rate.Limiter // nil when disabled
	minWait time.Duration
}

func newRateGate(enabled bool, minWait time.Duration) *rateGate {
	g := &rateGate{}
	g.reset(enabled, minWait)
	return g
}

// reset replaces the limiter, forgetting when the last call happened.
func (g *rateGate) reset(enabled bool, minWait time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !enabled {
		g.limiter = nil
		g.minWait = 0
		return
	}
	if minWait <= 0 {
		minWait = DefaultRateLimitMinWait
	}
	g.minWait = minWait
	g.limiter = rate.NewLimiter(rate.Every(minWait), 1)
}

// wait blocks until the caller may issue a request and returns how long
// it waited.
func (g *rateGate) wait(ctx context.Context) (time.Duration, error) {
	g.mu.Lock()
	l := g.limiter
	g.mu.Unlock()

	if l == nil {
		return 0, nil
	}

	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

func (g *rateGate) enabled() (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limiter != nil, g.minWait
}
