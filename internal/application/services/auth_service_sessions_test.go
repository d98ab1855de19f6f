package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	impl "github.com/deathnote2501/consultant-ia-generative/internal/application/services"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/repositories"
	tmocks "github.com/deathnote2501/consultant-ia-generative/test/mocks"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	auth     *impl.AuthService
	sessions ports.SessionService
	users    *tmocks.MemoryUserRepository
	learner  *user.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repositories.NewRefreshTokenRedisRepository(client, nil)
	learner := &user.User{ID: uuid.New(), Email: "me@example.com", IsActive: true}
	users := tmocks.NewMemoryUserRepository(learner)
	authSvc := impl.NewAuthService(store, testJWTConfig(), nil, nil)
	return &sessionFixture{
		auth:     authSvc,
		sessions: impl.NewSessionService(authSvc, store, users, nil),
		users:    users,
		learner:  learner,
	}
}

func TestSessionRefresh_RotatesOnce(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	creds, err := f.auth.IssueCredentialsFor(ctx, f.learner)
	require.NoError(t, err)

	rotated, err := f.sessions.Refresh(ctx, creds.RefreshToken)
	require.NoError(t, err)
	require.True(t, rotated.Complete())
	require.NotEqual(t, creds.RefreshToken, rotated.RefreshToken)

	claims, err := f.auth.ValidateToken(ctx, rotated.AccessToken)
	require.NoError(t, err)
	require.Equal(t, f.learner.ID, claims.UserID)

	_, err = f.sessions.Refresh(ctx, creds.RefreshToken)
	require.ErrorIs(t, err, ports.ErrInvalidRefreshToken)

	_, err = f.sessions.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestSessionRefresh_RejectsAccessTokensAndInactiveUsers(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	creds, err := f.auth.IssueCredentialsFor(ctx, f.learner)
	require.NoError(t, err)

	_, err = f.sessions.Refresh(ctx, creds.AccessToken)
	require.ErrorIs(t, err, ports.ErrInvalidRefreshToken)
	_, err = f.sessions.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, ports.ErrInvalidRefreshToken)

	inactive := *f.learner
	inactive.IsActive = false
	require.NoError(t, f.users.Update(ctx, &inactive))
	_, err = f.sessions.Refresh(ctx, creds.RefreshToken)
	require.ErrorIs(t, err, ports.ErrInvalidRefreshToken)
}

func TestSessionLogout(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	creds, err := f.auth.IssueCredentialsFor(ctx, f.learner)
	require.NoError(t, err)

	require.ErrorIs(t, f.sessions.Logout(ctx, uuid.New(), creds.RefreshToken), ports.ErrInvalidRefreshToken)

	require.NoError(t, f.sessions.Logout(ctx, f.learner.ID, creds.RefreshToken))
	require.NoError(t, f.sessions.Logout(ctx, f.learner.ID, creds.RefreshToken))

	_, err = f.sessions.Refresh(ctx, creds.RefreshToken)
	require.ErrorIs(t, err, ports.ErrInvalidRefreshToken)
}

func TestSessionRefresh_StoreFailureIsNotADomainError(t *testing.T) {
	store := &tmocks.RefreshTokenStoreMock{GetRefreshTokenFn: func(ctx context.Context, token string) (*ports.RefreshToken, error) {
		return nil, errors.New("redis down")
	}}
	learner := &user.User{ID: uuid.New(), IsActive: true}
	authSvc := impl.NewAuthService(store, testJWTConfig(), tmocks.NewFixedClock(time.Now().UTC()), nil)
	sessions := impl.NewSessionService(authSvc, store, tmocks.NewMemoryUserRepository(learner), nil)

	creds, err := authSvc.IssueCredentialsFor(context.Background(), learner)
	require.NoError(t, err)
	_, err = sessions.Refresh(context.Background(), creds.RefreshToken)
	require.Error(t, err)
	require.NotErrorIs(t, err, ports.ErrInvalidRefreshToken)
}
