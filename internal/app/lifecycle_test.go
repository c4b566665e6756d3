package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func testLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		Interval:         5 * time.Minute,
		StaleAfter:       12 * time.Hour,
		CoolingFor:       6 * time.Hour,
		ArchiveRetention: 48 * time.Hour,
	}
}

func TestSweepRunsAllTransitions(t *testing.T) {
	events := newFakeEventRepo()
	events.liveDue = 3
	events.coolingDue = 2
	events.archivedDue = 1
	events.purged = 4

	lifecycle := NewLifecycle(events, clockwork.NewFakeClock(), testLifecycleConfig())
	lifecycle.Sweep(context.Background())

	assert.Equal(t, []string{"live", "cooling", "archived", "purged"}, events.sweepCalls)
}

func TestSweepContinuesAfterTransitionError(t *testing.T) {
	events := newFakeEventRepo()
	events.sweepErr = errors.New("connection reset")
	events.purged = 7

	lifecycle := NewLifecycle(events, clockwork.NewFakeClock(), testLifecycleConfig())
	lifecycle.Sweep(context.Background())

	// The live transition failed but the remaining three still ran.
	assert.Equal(t, []string{"live", "cooling", "archived", "purged"}, events.sweepCalls)
}

func TestRunSweepsOnTickAndStopsOnCancel(t *testing.T) {
	events := newFakeEventRepo()
	clock := clockwork.NewFakeClock()
	lifecycle := NewLifecycle(events, clock, testLifecycleConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		lifecycle.Run(ctx)
		close(done)
	}()

	// Wait for the ticker to be registered before advancing.
	clock.BlockUntil(1)
	clock.Advance(5 * time.Minute)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
