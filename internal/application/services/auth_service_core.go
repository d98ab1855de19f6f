package services

import (
	config "github.com/deathnote2501/consultant-ia-generative/configs"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/utils"
	"github.com/sirupsen/logrus"
)

// AuthService mints and checks the HS256 credentials handed out after an email is
// confirmed. Login and registration are handled by the identity backend.
type AuthService struct {
	tokenStore ports.RefreshTokenStore
	jwtConfig  *config.JWTConfig
	clock      ports.Clock
	logger     *logrus.Logger
}

// NewAuthService returns a concrete *AuthService; it satisfies both
// ports.AuthTokenIssuer and ports.TokenValidator.
func NewAuthService(tokenStore ports.RefreshTokenStore, jwtConfig *config.JWTConfig, clock ports.Clock, logger *logrus.Logger) *AuthService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &AuthService{
		tokenStore: tokenStore,
		jwtConfig:  jwtConfig,
		clock:      clock,
		logger:     logger,
	}
}

var (
	_ ports.AuthTokenIssuer = (*AuthService)(nil)
	_ ports.TokenValidator  = (*AuthService)(nil)
)
