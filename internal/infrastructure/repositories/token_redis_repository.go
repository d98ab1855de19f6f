package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/utils"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	tokenPrefix = "course_tokens"
)

// RefreshTokenRedisRepository keeps issued refresh tokens in Redis, keyed by hash,
// with a TTL matching the token's expiry.
type RefreshTokenRedisRepository struct {
	client redis.Cmdable
	logger *logrus.Logger
}

func NewRefreshTokenRedisRepository(client redis.Cmdable, logger *logrus.Logger) *RefreshTokenRedisRepository {
	return &RefreshTokenRedisRepository{client: client, logger: logger}
}

func refreshKey(tokenHash string) string {
	return fmt.Sprintf("%s:refresh:%s", tokenPrefix, tokenHash)
}

func userRefreshKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:user:%s:refresh", tokenPrefix, userID)
}

func (r *RefreshTokenRedisRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refresh token already expired")
	}
	hash := utils.HashToken(token)
	data, err := json.Marshal(&ports.RefreshToken{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal refresh token: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, refreshKey(hash), data, ttl)
	pipe.SAdd(ctx, userRefreshKey(userID), hash)
	pipe.Expire(ctx, userRefreshKey(userID), ttl+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store refresh token in Redis: %w", err)
	}
	return nil
}

func (r *RefreshTokenRedisRepository) GetRefreshToken(ctx context.Context, token string) (*ports.RefreshToken, error) {
	data, err := r.client.Get(ctx, refreshKey(utils.HashToken(token))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token from Redis: %w", err)
	}
	var rt ports.RefreshToken
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal refresh token: %w", err)
	}
	return &rt, nil
}

func (r *RefreshTokenRedisRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	rt, err := r.GetRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := r.client.Del(ctx, refreshKey(rt.TokenHash)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if err := r.client.SRem(ctx, userRefreshKey(rt.UserID), rt.TokenHash).Err(); err != nil && r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_id": rt.UserID}).WithError(err).Warn("failed to remove refresh token from user mapping")
	}
	return nil
}

var _ ports.RefreshTokenStore = (*RefreshTokenRedisRepository)(nil)
