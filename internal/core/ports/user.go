package ports

import (
	"context"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/auth"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	// GetByVerificationToken returns ErrNotFound when no user holds the token.
	GetByVerificationToken(ctx context.Context, token string) (*user.User, error)
	Update(ctx context.Context, user *user.User) error
	// UpdateIfVerificationToken persists user only while the stored token still
	// equals expectedToken. It reports false when another writer got there first.
	UpdateIfVerificationToken(ctx context.Context, user *user.User, expectedToken string) (bool, error)
	// SetPendingVerification writes only the pending verification columns, leaving
	// email and is_verified as stored.
	SetPendingVerification(ctx context.Context, id uuid.UUID, submittedEmail, token string, expiresAt, updatedAt time.Time) error
	// ClearPendingVerification empties the pending verification columns while the
	// stored token still equals expectedToken.
	ClearPendingVerification(ctx context.Context, id uuid.UUID, expectedToken string, updatedAt time.Time) (bool, error)
}

// EmailVerificationService defines the email confirmation lifecycle
type EmailVerificationService interface {
	SubmitEmail(ctx context.Context, u *user.User, candidateEmail string) error
	VerifyToken(ctx context.Context, token string) (*auth.Credentials, error)
}
