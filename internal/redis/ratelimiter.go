package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sabyjs3-beep/tctp/internal/domain"
	"github.com/sabyjs3-beep/tctp/internal/metrics"
)

// Limits configures the soft friction applied to fresh device tokens. A
// device counts as fresh for Window after its first action; inside that
// window vote and post counts are capped. The post gap applies to every
// device regardless of age.
type Limits struct {
	Window  time.Duration
	Votes   int
	Posts   int
	PostGap time.Duration
}

// RateLimiter implements domain.DeviceRateLimiter on Redis TTL keys, so
// limits hold across instances and survive restarts within the window.
type RateLimiter struct {
	rdb    *goredis.Client
	limits Limits
}

var _ domain.DeviceRateLimiter = (*RateLimiter)(nil)

func NewRateLimiter(rdb *goredis.Client, limits Limits) *RateLimiter {
	return &RateLimiter{rdb: rdb, limits: limits}
}

func (l *RateLimiter) Check(ctx context.Context, deviceID uuid.UUID, action domain.RateLimitAction) (domain.RateLimitResult, error) {
	fresh, err := l.markSeen(ctx, deviceID)
	if err != nil {
		return domain.RateLimitResult{}, err
	}

	switch action {
	case domain.ActionVote:
		if !fresh {
			return allowed(), nil
		}
		return l.checkCounter(ctx, counterKey(deviceID, "vote"), l.limits.Votes)
	case domain.ActionPost:
		if res, err := l.checkGap(ctx, deviceID); err != nil || !res.Allowed {
			return res, err
		}
		if !fresh {
			return allowed(), nil
		}
		return l.checkCounter(ctx, counterKey(deviceID, "post"), l.limits.Posts)
	case domain.ActionPresence:
		return allowed(), nil
	default:
		return domain.RateLimitResult{}, fmt.Errorf("unknown rate limit action %q", action)
	}
}

// markSeen stamps the device's first-seen timestamp and reports whether the
// device is still inside its fresh window. The stamp never expires; a device
// is fresh exactly once.
func (l *RateLimiter) markSeen(ctx context.Context, deviceID uuid.UUID) (bool, error) {
	key := firstSeenKey(deviceID)
	now := time.Now()

	created, err := l.rdb.SetNX(ctx, key, now.Unix(), 0).Result()
	observe("set_first_seen", err)
	if err != nil {
		return false, fmt.Errorf("failed to stamp device first seen: %w", err)
	}
	if created {
		return true, nil
	}

	firstSeen, err := l.rdb.Get(ctx, key).Int64()
	if errors.Is(err, goredis.Nil) {
		return true, nil
	}
	observe("get_first_seen", err)
	if err != nil {
		return false, fmt.Errorf("failed to read device first seen: %w", err)
	}
	return now.Sub(time.Unix(firstSeen, 0)) < l.limits.Window, nil
}

func (l *RateLimiter) checkCounter(ctx context.Context, key string, limit int) (domain.RateLimitResult, error) {
	count, err := l.rdb.Incr(ctx, key).Result()
	observe("incr_counter", err)
	if err != nil {
		return domain.RateLimitResult{}, fmt.Errorf("failed to bump rate counter: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.limits.Window).Err(); err != nil {
			observe("expire_counter", err)
			return domain.RateLimitResult{}, fmt.Errorf("failed to expire rate counter: %w", err)
		}
	}
	if count <= int64(limit) {
		return allowed(), nil
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	observe("ttl_counter", err)
	if err != nil {
		return domain.RateLimitResult{}, fmt.Errorf("failed to read rate counter TTL: %w", err)
	}
	return denied(ttl), nil
}

func (l *RateLimiter) checkGap(ctx context.Context, deviceID uuid.UUID) (domain.RateLimitResult, error) {
	key := postGapKey(deviceID)

	args := goredis.SetArgs{TTL: l.limits.PostGap, Mode: "NX"}
	_, err := l.rdb.SetArgs(ctx, key, "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		ttl, ttlErr := l.rdb.TTL(ctx, key).Result()
		observe("ttl_post_gap", ttlErr)
		if ttlErr != nil {
			return domain.RateLimitResult{}, fmt.Errorf("failed to read post gap TTL: %w", ttlErr)
		}
		return denied(ttl), nil
	}
	observe("set_post_gap", err)
	if err != nil {
		return domain.RateLimitResult{}, fmt.Errorf("failed to set post gap: %w", err)
	}
	return allowed(), nil
}

func (l *RateLimiter) Reset(ctx context.Context, deviceID uuid.UUID) error {
	err := l.rdb.Del(ctx,
		firstSeenKey(deviceID),
		counterKey(deviceID, "vote"),
		counterKey(deviceID, "post"),
		postGapKey(deviceID),
	).Err()
	observe("reset_device", err)
	if err != nil {
		return fmt.Errorf("failed to reset device limits: %w", err)
	}
	return nil
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

func observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RedisOpsTotal.WithLabelValues(operation, status).Inc()
}

func firstSeenKey(deviceID uuid.UUID) string {
	return "device:first_seen:" + deviceID.String()
}

func counterKey(deviceID uuid.UUID, action string) string {
	return "rl:" + action + ":" + deviceID.String()
}

func postGapKey(deviceID uuid.UUID) string {
	return "rl:post_gap:" + deviceID.String()
}
