package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sabyjs3-beep/tctp/internal/domain"
	"github.com/sabyjs3-beep/tctp/internal/metrics"
)

// LifecycleConfig holds the timing knobs for the event state machine.
type LifecycleConfig struct {
	Interval         time.Duration
	StaleAfter       time.Duration
	CoolingFor       time.Duration
	ArchiveRetention time.Duration
}

// Lifecycle periodically sweeps events through created -> live -> cooling ->
// archived and purges archived events past retention. Sweeps are idempotent;
// multiple instances running the job concurrently do no harm.
type Lifecycle struct {
	events domain.EventRepository
	clock  clockwork.Clock
	cfg    LifecycleConfig
}

func NewLifecycle(events domain.EventRepository, clock clockwork.Clock, cfg LifecycleConfig) *Lifecycle {
	return &Lifecycle{events: events, clock: clock, cfg: cfg}
}

// Run starts the periodic sweep loop. It blocks until ctx is cancelled.
func (l *Lifecycle) Run(ctx context.Context) {
	ticker := l.clock.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			l.Sweep(ctx)
		}
	}
}

// Sweep runs one pass of all lifecycle transitions.
func (l *Lifecycle) Sweep(ctx context.Context) {
	start := time.Now()
	now := l.clock.Now()

	transitions := []struct {
		state string
		run   func() (int64, error)
	}{
		{"live", func() (int64, error) { return l.events.MarkLiveDue(ctx, now) }},
		{"cooling", func() (int64, error) { return l.events.MarkCoolingDue(ctx, now, l.cfg.StaleAfter) }},
		{"archived", func() (int64, error) { return l.events.MarkArchivedDue(ctx, now, l.cfg.CoolingFor) }},
		{"purged", func() (int64, error) { return l.events.PurgeArchived(ctx, now, l.cfg.ArchiveRetention) }},
	}

	for _, t := range transitions {
		moved, err := t.run()
		if err != nil {
			slog.Error("Lifecycle transition failed", "state", t.state, "error", err)
			continue
		}
		if moved > 0 {
			metrics.LifecycleTransitions.WithLabelValues(t.state).Add(float64(moved))
			slog.Info("Lifecycle transition", "state", t.state, "events", moved)
		}
	}

	metrics.LifecycleRunDuration.Observe(time.Since(start).Seconds())
}
