package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	rcache "github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/redis"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/repositories"
	tmocks "github.com/deathnote2501/consultant-ia-generative/test/mocks"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*miniredis.Miniredis, *rcache.RedisCache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, rcache.NewRedisCache(client, "test")
}

func TestCachingUserRepository_ReadThroughAndRefresh(t *testing.T) {
	mr, cache := newCache(t)
	u := &user.User{ID: uuid.New(), Email: "a@example.com"}
	inner := tmocks.NewMemoryUserRepository(u)
	repo := repositories.NewCachingUserRepository(inner, cache, time.Minute)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", got.Email)
	require.True(t, mr.Exists("test:user:id:"+u.ID.String()))

	got.Email = "b@example.com"
	require.NoError(t, repo.Update(ctx, got))
	cached, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "b@example.com", cached.Email)
}

func TestCachingUserRepository_ConditionalWriteInvalidates(t *testing.T) {
	mr, cache := newCache(t)
	tok := "tok"
	exp := time.Now().Add(time.Hour)
	sub := "new@example.com"
	u := &user.User{ID: uuid.New(), Email: "old@example.com", SubmittedEmail: &sub, VerificationToken: &tok, VerificationTokenExpiresAt: &exp}
	inner := tmocks.NewMemoryUserRepository(u)
	repo := repositories.NewCachingUserRepository(inner, cache, time.Minute)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)

	found, err := repo.GetByVerificationToken(ctx, tok)
	require.NoError(t, err)
	found.PromoteSubmittedEmail(time.Now())
	applied, err := repo.UpdateIfVerificationToken(ctx, found, tok)
	require.NoError(t, err)
	require.True(t, applied)
	require.False(t, mr.Exists("test:user:id:"+u.ID.String()))

	reloaded, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", reloaded.Email)
	require.True(t, reloaded.IsVerified)
}

func TestCachingUserRepository_PendingWritesInvalidate(t *testing.T) {
	mr, cache := newCache(t)
	u := &user.User{ID: uuid.New(), Email: "a@x.com", IsVerified: true}
	inner := tmocks.NewMemoryUserRepository(u)
	repo := repositories.NewCachingUserRepository(inner, cache, time.Minute)
	ctx := context.Background()
	key := "test:user:id:" + u.ID.String()
	now := time.Now().UTC()

	_, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	require.NoError(t, repo.SetPendingVerification(ctx, u.ID, "b@x.com", "tok", now.Add(time.Hour), now))
	require.False(t, mr.Exists(key))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Email)
	require.True(t, got.IsVerified)
	require.Equal(t, "b@x.com", *got.SubmittedEmail)
	require.True(t, mr.Exists(key))

	cleared, err := repo.ClearPendingVerification(ctx, u.ID, "tok", now)
	require.NoError(t, err)
	require.True(t, cleared)
	require.False(t, mr.Exists(key))

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got.SubmittedEmail)
	require.True(t, got.IsVerified)
}

func activeSub(userID uuid.UUID, providerID string, end time.Time) *subscription.Subscription {
	return &subscription.Subscription{
		ID:                     uuid.New(),
		UserID:                 userID,
		CourseID:               9,
		ProviderSubscriptionID: providerID,
		Status:                 subscription.StatusActive,
		CurrentPeriodStart:     end.Add(-30 * 24 * time.Hour),
		CurrentPeriodEnd:       end,
	}
}

func TestCachingSubscriptionRepository_CachesAndInvalidates(t *testing.T) {
	_, cache := newCache(t)
	inner := tmocks.NewMemorySubscriptionRepository()
	repo := repositories.NewCachingSubscriptionRepository(inner, cache, time.Minute)
	ctx := context.Background()
	now := time.Now().UTC()
	userID := uuid.New()

	subs, err := repo.FindActiveForUserAndCourse(ctx, userID, 9, now)
	require.NoError(t, err)
	require.Empty(t, subs)

	require.NoError(t, repo.Create(ctx, activeSub(userID, "sub_1", now.Add(time.Hour))))
	subs, err = repo.FindActiveForUserAndCourse(ctx, userID, 9, now)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	calls := inner.FindCalls

	_, err = repo.FindActiveForUserAndCourse(ctx, userID, 9, now)
	require.NoError(t, err)
	require.Equal(t, calls, inner.FindCalls)

	_, err = repo.UpdateStatus(ctx, "sub_1", subscription.StatusCanceled, now.Add(-time.Hour), now.Add(time.Hour), now)
	require.NoError(t, err)
	subs, err = repo.FindActiveForUserAndCourse(ctx, userID, 9, now)
	require.NoError(t, err)
	require.Empty(t, subs)
}

func TestCachingSubscriptionRepository_RechecksPeriodOnRead(t *testing.T) {
	_, cache := newCache(t)
	inner := tmocks.NewMemorySubscriptionRepository()
	repo := repositories.NewCachingSubscriptionRepository(inner, cache, time.Hour)
	ctx := context.Background()
	now := time.Now().UTC()
	userID := uuid.New()
	require.NoError(t, inner.Create(ctx, activeSub(userID, "sub_1", now.Add(time.Minute))))

	subs, err := repo.FindActiveForUserAndCourse(ctx, userID, 9, now)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	subs, err = repo.FindActiveForUserAndCourse(ctx, userID, 9, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.Empty(t, subs)
}

func TestCachingSubscriptionRepository_CoalescesConcurrentMisses(t *testing.T) {
	_, cache := newCache(t)
	inner := tmocks.NewMemorySubscriptionRepository()
	repo := repositories.NewCachingSubscriptionRepository(inner, cache, time.Minute)
	now := time.Now().UTC()
	userID := uuid.New()
	require.NoError(t, inner.Create(context.Background(), activeSub(userID, "sub_1", now.Add(time.Hour))))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subs, err := repo.FindActiveForUserAndCourse(context.Background(), userID, 9, now)
			require.NoError(t, err)
			require.Len(t, subs, 1)
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, inner.FindCalls, 8)
	require.GreaterOrEqual(t, inner.FindCalls, 1)
}

// ctxRecordingSubscriptions reports the context state seen by the store.
type ctxRecordingSubscriptions struct {
	*tmocks.MemorySubscriptionRepository
	seen error
}

func (r *ctxRecordingSubscriptions) FindActiveForUserAndCourse(ctx context.Context, userID uuid.UUID, courseID int64, now time.Time) ([]*subscription.Subscription, error) {
	r.seen = ctx.Err()
	if r.seen != nil {
		return nil, r.seen
	}
	return r.MemorySubscriptionRepository.FindActiveForUserAndCourse(ctx, userID, courseID, now)
}

func TestCachingSubscriptionRepository_SharedLoadIgnoresCallerCancel(t *testing.T) {
	mr, cache := newCache(t)
	inner := &ctxRecordingSubscriptions{MemorySubscriptionRepository: tmocks.NewMemorySubscriptionRepository()}
	repo := repositories.NewCachingSubscriptionRepository(inner, cache, time.Minute)
	now := time.Now().UTC()
	userID := uuid.New()
	require.NoError(t, inner.Create(context.Background(), activeSub(userID, "sub_1", now.Add(time.Hour))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	subs, err := repo.FindActiveForUserAndCourse(ctx, userID, 9, now)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NoError(t, inner.seen)
	require.True(t, mr.Exists("test:entitlement:"+userID.String()+":9"))
}

func TestCachingSubscriptionRepository_WithoutCache(t *testing.T) {
	inner := tmocks.NewMemorySubscriptionRepository()
	repo := repositories.NewCachingSubscriptionRepository(inner, nil, time.Minute)
	now := time.Now().UTC()
	userID := uuid.New()
	require.NoError(t, repo.Create(context.Background(), activeSub(userID, "sub_1", now.Add(time.Hour))))

	subs, err := repo.FindActiveForUserAndCourse(context.Background(), userID, 9, now)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	got, err := repo.GetByProviderSubscriptionID(context.Background(), "sub_1")
	require.NoError(t, err)
	require.Equal(t, userID, got.UserID)
}
