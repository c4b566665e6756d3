package harvest

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sabyjs3-beep/tctp/internal/ingest"
	"github.com/sabyjs3-beep/tctp/internal/metrics"
)

const (
	breakerConsecutiveFailures = 3
	breakerOpenTimeout         = 5 * time.Minute
)

// BreakerSource wraps a Source with a circuit breaker so a feed that starts
// failing is backed off instead of hammered on every run.
type BreakerSource struct {
	inner Source
	cb    *gobreaker.CircuitBreaker
}

var _ Source = (*BreakerSource)(nil)

func NewBreakerSource(inner Source) *BreakerSource {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    inner.Name(),
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"component", "harvest",
				"source", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerStateChanges.WithLabelValues("harvest", to.String()).Inc()
		},
	})
	return &BreakerSource{inner: inner, cb: cb}
}

func (b *BreakerSource) Name() string {
	return b.inner.Name()
}

// Fetch delegates to the wrapped source through the breaker. While the
// breaker is open it returns gobreaker.ErrOpenState without touching the
// feed.
func (b *BreakerSource) Fetch(ctx context.Context) ([]ingest.Submission, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]ingest.Submission), nil
}

// State exposes the breaker state for tests and monitoring.
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}
