package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/db"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const userColumns = `id, email, submitted_email, email_verification_token, email_verification_token_expires_at,
		is_verified, is_active, created_at, updated_at`

// UserRepository implements the user repository interface
type UserRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.Database, logger *logrus.Logger) ports.UserRepository {
	return &UserRepository{
		db:     database,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.DB.ExecContext(ctx, query,
		u.ID, u.Email, u.SubmittedEmail, u.VerificationToken, u.VerificationTokenExpiresAt,
		u.IsVerified, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": u.ID}).WithError(err).Error("db: failed to create user")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	if err := r.db.DB.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"user_id": id}).Debug("db: user not found by ID")
			}
			return nil, fmt.Errorf("%w: user %s", ports.ErrNotFound, id)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": id}).WithError(err).Error("db: failed to get user by ID")
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &u, nil
}

// GetByVerificationToken retrieves the user holding a pending verification token
func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*user.User, error) {
	var u user.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email_verification_token = $1`

	if err := r.db.DB.GetContext(ctx, &u, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to get user by verification token")
		}
		return nil, fmt.Errorf("failed to get user by verification token: %w", err)
	}
	return &u, nil
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = $2, submitted_email = $3, email_verification_token = $4,
			email_verification_token_expires_at = $5, is_verified = $6, is_active = $7, updated_at = $8
		WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query,
		u.ID, u.Email, u.SubmittedEmail, u.VerificationToken, u.VerificationTokenExpiresAt,
		u.IsVerified, u.IsActive, u.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": u.ID}).WithError(err).Error("db: failed to update user")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: user %s", ports.ErrNotFound, u.ID)
	}
	return nil
}

// UpdateIfVerificationToken writes u only while the stored token still matches
// expectedToken. Concurrent consumers of one token race on this statement and
// exactly one of them sees a row affected.
func (r *UserRepository) UpdateIfVerificationToken(ctx context.Context, u *user.User, expectedToken string) (bool, error) {
	query := `
		UPDATE users
		SET email = $3, submitted_email = $4, email_verification_token = $5,
			email_verification_token_expires_at = $6, is_verified = $7, is_active = $8, updated_at = $9
		WHERE id = $1 AND email_verification_token = $2`

	result, err := r.db.DB.ExecContext(ctx, query,
		u.ID, expectedToken, u.Email, u.SubmittedEmail, u.VerificationToken, u.VerificationTokenExpiresAt,
		u.IsVerified, u.IsActive, u.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": u.ID}).WithError(err).Error("db: failed conditional user update")
		}
		return false, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 && r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_id": u.ID}).Debug("db: verification token already consumed or replaced")
	}
	return rowsAffected == 1, nil
}

// SetPendingVerification records a submitted email and its token without touching
// email or is_verified, so a promotion committed by another request survives.
func (r *UserRepository) SetPendingVerification(ctx context.Context, id uuid.UUID, submittedEmail, token string, expiresAt, updatedAt time.Time) error {
	query := `
		UPDATE users
		SET submitted_email = $2, email_verification_token = $3,
			email_verification_token_expires_at = $4, updated_at = $5
		WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id, submittedEmail, token, expiresAt, updatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": id}).WithError(err).Error("db: failed to set pending verification")
		}
		return fmt.Errorf("failed to set pending verification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: user %s", ports.ErrNotFound, id)
	}
	return nil
}

// ClearPendingVerification nulls the pending columns only while expectedToken is
// still the stored token.
func (r *UserRepository) ClearPendingVerification(ctx context.Context, id uuid.UUID, expectedToken string, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE users
		SET submitted_email = NULL, email_verification_token = NULL,
			email_verification_token_expires_at = NULL, updated_at = $3
		WHERE id = $1 AND email_verification_token = $2`

	result, err := r.db.DB.ExecContext(ctx, query, id, expectedToken, updatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": id}).WithError(err).Error("db: failed to clear pending verification")
		}
		return false, fmt.Errorf("failed to clear pending verification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
