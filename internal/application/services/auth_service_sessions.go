package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/auth"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionService rotates and revokes the refresh tokens minted by AuthService.
// Without a token store, refresh tokens are checked by signature only and logout
// is a no-op.
type SessionService struct {
	auth       *AuthService
	tokenStore ports.RefreshTokenStore
	users      ports.UserRepository
	logger     *logrus.Logger
}

func NewSessionService(authService *AuthService, tokenStore ports.RefreshTokenStore, users ports.UserRepository, logger *logrus.Logger) ports.SessionService {
	return &SessionService{auth: authService, tokenStore: tokenStore, users: users, logger: logger}
}

// Refresh exchanges a refresh token for a new credential pair. The presented token
// is revoked before the new pair is issued, so each one works once.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*auth.Credentials, error) {
	claims, err := s.auth.parseClaims(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRefreshToken, err)
	}

	if s.tokenStore != nil {
		stored, err := s.tokenStore.GetRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil, fmt.Errorf("%w: revoked or unknown", ports.ErrInvalidRefreshToken)
			}
			return nil, fmt.Errorf("failed to load refresh token: %w", err)
		}
		if stored.UserID != claims.UserID {
			return nil, fmt.Errorf("%w: token/user mismatch", ports.ErrInvalidRefreshToken)
		}
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ports.ErrInvalidRefreshToken)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", ports.ErrInvalidRefreshToken)
	}

	if s.tokenStore != nil {
		if err := s.tokenStore.DeleteRefreshToken(ctx, refreshToken); err != nil {
			return nil, fmt.Errorf("failed to revoke used refresh token: %w", err)
		}
	}

	creds, err := s.auth.IssueCredentialsFor(ctx, u)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.WithField("user_id", u.ID).Debug("refresh token rotated")
	}
	return creds, nil
}

// Logout revokes refreshToken for userID. Unknown tokens are ignored; a token that
// belongs to someone else is rejected.
func (s *SessionService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if s.tokenStore == nil {
		return nil
	}
	stored, err := s.tokenStore.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load refresh token: %w", err)
	}
	if stored.UserID != userID {
		return fmt.Errorf("%w: session does not belong to user", ports.ErrInvalidRefreshToken)
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if s.logger != nil {
		s.logger.WithField("user_id", userID).Info("refresh token revoked")
	}
	return nil
}
