package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/deathnote2501/consultant-ia-generative/configs"
	impl "github.com/deathnote2501/consultant-ia-generative/internal/application/services"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/auth"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	tmocks "github.com/deathnote2501/consultant-ia-generative/test/mocks"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{Secret: "test-secret", Issuer: "test", AccessTokenTTL: 15 * time.Minute, RefreshTokenTTL: 24 * time.Hour}
}

func TestIssueCredentialsFor_RoundTrip(t *testing.T) {
	var storedFor uuid.UUID
	var storedExpiry time.Time
	store := &tmocks.RefreshTokenStoreMock{StoreRefreshTokenFn: func(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
		storedFor, storedExpiry = userID, expiresAt
		return nil
	}}
	now := time.Now().UTC().Truncate(time.Second)
	svc := impl.NewAuthService(store, testJWTConfig(), tmocks.NewFixedClock(now), nil)
	u := &user.User{ID: uuid.New(), Email: "me@example.com"}

	creds, err := svc.IssueCredentialsFor(context.Background(), u)
	require.NoError(t, err)
	require.True(t, creds.Complete())
	require.Equal(t, auth.BearerTokenType, creds.TokenType)
	require.Equal(t, int64(900), creds.ExpiresIn)
	require.Equal(t, u.ID, storedFor)
	require.Equal(t, now.Add(24*time.Hour), storedExpiry)

	claims, err := svc.ValidateToken(context.Background(), creds.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, "me@example.com", claims.Email)

	_, err = svc.ValidateToken(context.Background(), creds.RefreshToken)
	require.Error(t, err)
}

func TestIssueCredentialsFor_StoreFailure(t *testing.T) {
	store := &tmocks.RefreshTokenStoreMock{StoreRefreshTokenFn: func(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
		return errors.New("redis down")
	}}
	svc := impl.NewAuthService(store, testJWTConfig(), nil, nil)
	_, err := svc.IssueCredentialsFor(context.Background(), &user.User{ID: uuid.New()})
	require.Error(t, err)
}

func TestValidateToken_RejectsExpiredAndForeign(t *testing.T) {
	clock := tmocks.NewFixedClock(time.Now().UTC())
	svc := impl.NewAuthService(nil, testJWTConfig(), clock, nil)
	creds, err := svc.IssueCredentialsFor(context.Background(), &user.User{ID: uuid.New()})
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)
	_, err = svc.ValidateToken(context.Background(), creds.AccessToken)
	require.Error(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID:    uuid.New(),
		TokenType: auth.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), foreign)
	require.Error(t, err)

	_, err = svc.ValidateToken(context.Background(), "not-a-jwt")
	require.Error(t, err)
}
