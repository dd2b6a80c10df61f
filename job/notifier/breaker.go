package notifier

import (
	"context"
	"time"

	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker around a sink
type BreakerConfig struct {
	// ConsecutiveFailures opens the circuit
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a trial request
	OpenTimeout time.Duration
}

// Breaker stops calling a failing sink for a while instead of paying its
// timeout on every event.
type Breaker struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next in a circuit breaker called name
func NewBreaker(name string, next Notifier, cfg BreakerConfig) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	threshold := cfg.ConsecutiveFailures
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn(context.Background(), "notifier circuit state changed",
					"sink", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (b *Breaker) Notify(ctx context.Context, event *structs.Event) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Notify(ctx, event)
	})
	return err
}

// State returns the current circuit state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
