package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var sf singleflight.Group

// Utility helpers
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func cacheDeleteSilently(c ports.Cache, ctx context.Context, key string) {
	if c == nil {
		return
	}
	_ = c.Delete(ctx, key)
}

// loadWithSingleflight coalesces concurrent misses on key into one loader call and
// caches the result. The shared load runs detached from the leader's cancellation so
// one caller going away does not fail every waiter on the key.
func loadWithSingleflight[T any](cache ports.Cache, ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := cacheGet[T](cache, ctx, key); ok {
		return *v, nil
	}
	res, err, _ := sf.Do(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		if v, ok := cacheGet[T](cache, lctx, key); ok {
			return *v, nil
		}
		v, err := loader(lctx)
		if err != nil {
			return nil, err
		}
		cacheSetSilently(cache, lctx, key, v, ttl)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected type from singleflight result")
	}
	return v, nil
}

func userKey(id uuid.UUID) string { return "user:id:" + id.String() }

// CachingUserRepository decorates a UserRepository with cache-aside on GetByID.
// Token lookups and conditional writes always hit the store.
type CachingUserRepository struct {
	inner ports.UserRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingUserRepository(inner ports.UserRepository, cache ports.Cache, ttl time.Duration) ports.UserRepository {
	return &CachingUserRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingUserRepository) Create(ctx context.Context, u *user.User) error {
	if err := c.inner.Create(ctx, u); err != nil {
		return err
	}
	cacheSetSilently(c.cache, ctx, userKey(u.ID), u, c.ttl)
	return nil
}

func (c *CachingUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if v, ok := cacheGet[user.User](c.cache, ctx, userKey(id)); ok {
		return v, nil
	}
	u, err := c.inner.GetByID(ctx, id)
	if err == nil {
		cacheSetSilently(c.cache, ctx, userKey(id), u, c.ttl)
	}
	return u, err
}

func (c *CachingUserRepository) GetByVerificationToken(ctx context.Context, token string) (*user.User, error) {
	return c.inner.GetByVerificationToken(ctx, token)
}

func (c *CachingUserRepository) Update(ctx context.Context, u *user.User) error {
	if err := c.inner.Update(ctx, u); err != nil {
		cacheDeleteSilently(c.cache, ctx, userKey(u.ID))
		return err
	}
	cacheSetSilently(c.cache, ctx, userKey(u.ID), u, c.ttl)
	return nil
}

func (c *CachingUserRepository) UpdateIfVerificationToken(ctx context.Context, u *user.User, expectedToken string) (bool, error) {
	applied, err := c.inner.UpdateIfVerificationToken(ctx, u, expectedToken)
	// the stored row may differ from u when the write lost; let the next read reload it
	cacheDeleteSilently(c.cache, ctx, userKey(u.ID))
	return applied, err
}

func (c *CachingUserRepository) SetPendingVerification(ctx context.Context, id uuid.UUID, submittedEmail, token string, expiresAt, updatedAt time.Time) error {
	err := c.inner.SetPendingVerification(ctx, id, submittedEmail, token, expiresAt, updatedAt)
	cacheDeleteSilently(c.cache, ctx, userKey(id))
	return err
}

func (c *CachingUserRepository) ClearPendingVerification(ctx context.Context, id uuid.UUID, expectedToken string, updatedAt time.Time) (bool, error) {
	applied, err := c.inner.ClearPendingVerification(ctx, id, expectedToken, updatedAt)
	cacheDeleteSilently(c.cache, ctx, userKey(id))
	return applied, err
}

func entitlementKey(userID uuid.UUID, courseID int64) string {
	return "entitlement:" + userID.String() + ":" + strconv.FormatInt(courseID, 10)
}

// CachingSubscriptionRepository caches the active-subscription lookup behind
// entitlement checks. Cached rows are re-filtered against the caller's clock so a
// lapsed period never grants access from cache.
type CachingSubscriptionRepository struct {
	inner ports.SubscriptionRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingSubscriptionRepository(inner ports.SubscriptionRepository, cache ports.Cache, ttl time.Duration) ports.SubscriptionRepository {
	return &CachingSubscriptionRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingSubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	if err := c.inner.Create(ctx, s); err != nil {
		return err
	}
	cacheDeleteSilently(c.cache, ctx, entitlementKey(s.UserID, s.CourseID))
	return nil
}

func (c *CachingSubscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	return c.inner.GetByProviderSubscriptionID(ctx, providerSubscriptionID)
}

func (c *CachingSubscriptionRepository) UpdateStatus(ctx context.Context, providerSubscriptionID string, status subscription.Status, periodStart, periodEnd, updatedAt time.Time) (*subscription.Subscription, error) {
	s, err := c.inner.UpdateStatus(ctx, providerSubscriptionID, status, periodStart, periodEnd, updatedAt)
	if err != nil {
		return nil, err
	}
	cacheDeleteSilently(c.cache, ctx, entitlementKey(s.UserID, s.CourseID))
	return s, nil
}

func (c *CachingSubscriptionRepository) FindActiveForUserAndCourse(ctx context.Context, userID uuid.UUID, courseID int64, now time.Time) ([]*subscription.Subscription, error) {
	if c.cache == nil {
		return c.inner.FindActiveForUserAndCourse(ctx, userID, courseID, now)
	}
	all, err := loadWithSingleflight(c.cache, ctx, entitlementKey(userID, courseID), c.ttl, func(lctx context.Context) ([]*subscription.Subscription, error) {
		return c.inner.FindActiveForUserAndCourse(lctx, userID, courseID, now)
	})
	if err != nil {
		return nil, err
	}
	active := make([]*subscription.Subscription, 0, len(all))
	for _, s := range all {
		if s.GrantsAccess(now) {
			active = append(active, s)
		}
	}
	return active, nil
}

var (
	_ ports.UserRepository         = (*CachingUserRepository)(nil)
	_ ports.SubscriptionRepository = (*CachingSubscriptionRepository)(nil)
)
