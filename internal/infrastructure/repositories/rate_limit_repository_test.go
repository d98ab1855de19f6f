package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/repositories"
	tmocks "github.com/deathnote2501/consultant-ia-generative/test/mocks"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newRateLimitRepo(t *testing.T, clock *tmocks.FixedClock) (*miniredis.Miniredis, *repositories.RateLimitRedisRepository) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, repositories.NewRateLimitRedisRepository(client, clock, nil)
}

func TestRateLimitRedisRepository_CountsWithinWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := tmocks.NewFixedClock(start.Add(time.Minute))
	mr, repo := newRateLimitRepo(t, clock)
	ctx := context.Background()

	first, ws, err := repo.IncrementWindow(ctx, "user:a", 15*time.Minute, "rl", 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, first)
	require.Equal(t, start, ws)

	second, _, err := repo.IncrementWindow(ctx, "user:a", 15*time.Minute, "rl", 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, second)

	other, _, err := repo.IncrementWindow(ctx, "user:b", 15*time.Minute, "rl", 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, other)

	key := "rl:user:b:1772359200"
	require.True(t, mr.Exists(key))
	require.Equal(t, 30*time.Minute, mr.TTL(key))
}

func TestRateLimitRedisRepository_NextWindowStartsOver(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := tmocks.NewFixedClock(start)
	_, repo := newRateLimitRepo(t, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := repo.IncrementWindow(ctx, "ip:1", 15*time.Minute, "rl", 30*time.Minute)
		require.NoError(t, err)
	}
	clock.Advance(15 * time.Minute)
	count, ws, err := repo.IncrementWindow(ctx, "ip:1", 15*time.Minute, "rl", 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, start.Add(15*time.Minute), ws)
}

func TestRateLimitRedisRepository_TTLCoversRestOfWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := tmocks.NewFixedClock(start.Add(time.Hour))
	mr, repo := newRateLimitRepo(t, clock)

	_, ws, err := repo.IncrementWindow(context.Background(), "user:a", 24*time.Hour, "rl", time.Hour)
	require.NoError(t, err)
	require.Equal(t, start, ws)
	require.Equal(t, 23*time.Hour, mr.TTL("rl:user:a:1772323200"))
}

func TestRateLimitRedisRepository_RejectsZeroWindow(t *testing.T) {
	_, repo := newRateLimitRepo(t, tmocks.NewFixedClock(time.Now()))
	_, _, err := repo.IncrementWindow(context.Background(), "user:a", 0, "rl", time.Minute)
	require.Error(t, err)
}

func TestRateLimitRedisRepository_StoreDownIsWrapped(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()
	repo := repositories.NewRateLimitRedisRepository(client, tmocks.NewFixedClock(time.Now()), nil)

	_, _, err := repo.IncrementWindow(context.Background(), "user:a", time.Minute, "rl", time.Minute)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to increment rate limit window")
}
