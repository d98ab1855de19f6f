package ports

import (
	"context"
	"time"
)

// Cache is the byte-level store behind the read-through repositories. A failing
// cache must never fail a request; callers fall back to the database.
type Cache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set with ttl <= 0 keeps the entry until it is deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}

// HealthChecker probes one backing service for /health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
