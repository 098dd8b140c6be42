package quote

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardSettings tune a Guard.
type GuardSettings struct {
	Name          string
	RatePerSecond float64 // unlimited if zero
	Burst         int
	MaxFailures   uint32        // consecutive failures before the breaker opens, 5 if zero
	OpenTimeout   time.Duration // time the breaker stays open, 30s if zero
}

// Guard wraps a feed with a rate limiter and a circuit breaker, so that a
// refresh of many trades neither floods nor keeps hammering a failing API.
type Guard struct {
	feed    Feed
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
}

func NewGuard(feed Feed, s GuardSettings) *Guard {
	limit := rate.Inf
	if s.RatePerSecond > 0 {
		limit = rate.Limit(s.RatePerSecond)
	}
	burst := s.Burst
	if burst < 1 {
		burst = 1
	}
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := s.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	name := s.Name
	if name == "" {
		name = "quote"
	}

	return &Guard{
		feed:    feed,
		limiter: rate.NewLimiter(limit, burst),
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("feed", name).Str("from", from.String()).Str("to", to.String()).Msg("quote circuit breaker")
			},
		}),
	}
}

// Quote waits for the rate limiter, then calls the feed unless the breaker
// is open, in which case it fails with gobreaker.ErrOpenState.
func (g *Guard) Quote(ctx context.Context, symbol string) (Quote, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return Quote{}, err
	}
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.feed.Quote(ctx, symbol)
	})
	if err != nil {
		return Quote{}, err
	}
	return res.(Quote), nil
}
