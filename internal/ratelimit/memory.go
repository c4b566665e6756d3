// Package ratelimit provides an in-memory implementation of the device rate
// limiter for single-instance deployments and tests. Multi-instance
// deployments should use the Redis-backed limiter instead, since this state
// is per process.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sabyjs3-beep/tctp/internal/domain"
	"github.com/sabyjs3-beep/tctp/internal/redis"
)

type deviceState struct {
	firstSeen   time.Time
	votes       int
	posts       int
	lastPost    time.Time
	hasPosted   bool
	windowReset time.Time
}

// MemoryLimiter implements domain.DeviceRateLimiter with in-process counters.
type MemoryLimiter struct {
	mu      sync.Mutex
	devices map[uuid.UUID]*deviceState
	limits  redis.Limits
	clock   clockwork.Clock
}

var _ domain.DeviceRateLimiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(limits redis.Limits, clock clockwork.Clock) *MemoryLimiter {
	return &MemoryLimiter{
		devices: make(map[uuid.UUID]*deviceState),
		limits:  limits,
		clock:   clock,
	}
}

func (l *MemoryLimiter) Check(_ context.Context, deviceID uuid.UUID, action domain.RateLimitAction) (domain.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	state, ok := l.devices[deviceID]
	if !ok {
		state = &deviceState{firstSeen: now, windowReset: now.Add(l.limits.Window)}
		l.devices[deviceID] = state
	}
	if now.After(state.windowReset) {
		state.votes = 0
		state.posts = 0
		state.windowReset = now.Add(l.limits.Window)
	}

	fresh := now.Sub(state.firstSeen) < l.limits.Window

	switch action {
	case domain.ActionVote:
		if !fresh {
			return allowed(), nil
		}
		state.votes++
		if state.votes > l.limits.Votes {
			return denied(state.windowReset.Sub(now)), nil
		}
		return allowed(), nil

	case domain.ActionPost:
		if state.hasPosted {
			if gapLeft := l.limits.PostGap - now.Sub(state.lastPost); gapLeft > 0 {
				return denied(gapLeft), nil
			}
		}
		if fresh {
			state.posts++
			if state.posts > l.limits.Posts {
				return denied(state.windowReset.Sub(now)), nil
			}
		}
		state.lastPost = now
		state.hasPosted = true
		return allowed(), nil

	case domain.ActionPresence:
		return allowed(), nil

	default:
		return domain.RateLimitResult{}, fmt.Errorf("unknown rate limit action %q", action)
	}
}

func (l *MemoryLimiter) Reset(_ context.Context, deviceID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.devices, deviceID)
	return nil
}

// EvictStale removes devices whose last activity windows have fully lapsed
// and returns the count evicted. This prevents unbounded map growth.
func (l *MemoryLimiter) EvictStale() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	evicted := 0
	for id, state := range l.devices {
		idleSince := state.windowReset
		if state.hasPosted && state.lastPost.Add(l.limits.PostGap).After(idleSince) {
			idleSince = state.lastPost.Add(l.limits.PostGap)
		}
		if now.After(idleSince) {
			delete(l.devices, id)
			evicted++
		}
	}
	return evicted
}

// Size returns the number of tracked devices (including stale ones).
func (l *MemoryLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.devices)
}

// StartEvictionTimer starts a background goroutine that periodically evicts
// stale device entries. Returns a stop function.
func (l *MemoryLimiter) StartEvictionTimer(interval time.Duration) func() {
	ticker := l.clock.NewTicker(interval)
	done := make(chan bool)

	go func() {
		for {
			select {
			case <-ticker.Chan():
				evicted := l.EvictStale()
				if evicted > 0 {
					slog.Debug("Evicted stale rate limiter entries",
						"count", evicted,
						"remaining", l.Size(),
					)
				}

			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}

func allowed() domain.RateLimitResult {
	return domain.RateLimitResult{Allowed: true}
}

func denied(retryAfter time.Duration) domain.RateLimitResult {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return domain.RateLimitResult{Allowed: false, RetryAfter: retryAfter}
}
