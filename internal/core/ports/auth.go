package ports

import (
	"context"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/auth"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/google/uuid"
)

// AuthTokenIssuer mints a credential pair for a user whose email was just confirmed.
type AuthTokenIssuer interface {
	IssueCredentialsFor(ctx context.Context, u *user.User) (*auth.Credentials, error)
}

// TokenValidator checks bearer tokens presented to protected routes.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// SessionService rotates and revokes refresh tokens.
type SessionService interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.Credentials, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
}

// RefreshTokenStore keeps issued refresh tokens so they can be revoked.
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

// RefreshToken represents a stored refresh token
type RefreshToken struct {
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
