package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/utils"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimitRedisRepository keeps one Redis counter per subject and window. Window
// boundaries come from time.Truncate, so every instance agrees on them.
type RateLimitRedisRepository struct {
	r      redis.Cmdable
	clock  ports.Clock
	logger *logrus.Logger
}

// NewRateLimitRedisRepository falls back to the system clock when clock is nil.
func NewRateLimitRedisRepository(r redis.Cmdable, clock ports.Clock, logger *logrus.Logger) *RateLimitRedisRepository {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &RateLimitRedisRepository{r: r, clock: clock, logger: logger}
}

func windowKey(prefix, subject string, windowStart time.Time) string {
	return prefix + ":" + subject + ":" + strconv.FormatInt(windowStart.Unix(), 10)
}

// IncrementWindow bumps the counter of the window holding the current time. The key
// never expires before its window closes, whatever ttl the caller passes.
func (repo *RateLimitRedisRepository) IncrementWindow(ctx context.Context, subject string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if window <= 0 {
		return 0, time.Time{}, fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	now := repo.clock.Now()
	windowStart := now.Truncate(window)
	if left := windowStart.Add(window).Sub(now); ttl < left {
		ttl = left
	}

	key := windowKey(keyPrefix, subject, windowStart)
	var incr *redis.IntCmd
	_, err := repo.r.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		if repo.logger != nil {
			repo.logger.WithFields(logrus.Fields{"subject": subject, "key": key}).WithError(err).Error("redis: failed to increment rate limit window")
		}
		return 0, windowStart, fmt.Errorf("failed to increment rate limit window: %w", err)
	}
	return int(incr.Val()), windowStart, nil
}

var _ ports.RateLimitRepository = (*RateLimitRedisRepository)(nil)
