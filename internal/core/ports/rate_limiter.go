package ports

import (
	"context"
	"time"
)

// RateLimitRepository provides atomic fixed-window counters.
// Implementations must be safe for concurrent use.
type RateLimitRepository interface {
	// IncrementWindow increments the counter for subject in the window containing now
	// and makes the key expire after ttl. Returns the updated count and the window start.
	IncrementWindow(ctx context.Context, subject string, window time.Duration, keyPrefix string, ttl time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimiter throttles an action per subject (a user id or a client address).
type RateLimiter interface {
	// Allow consumes one unit for subject and reports whether it is permitted.
	// remaining is the number of further calls allowed in the current window.
	Allow(ctx context.Context, subject string) (allowed bool, remaining int, limit int, reset time.Time, err error)
}
