package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/httpserver/helpers"
)

type JWTMiddleware struct {
	tokens ports.TokenValidator
	users  ports.UserRepository
	logger *logrus.Logger
}

func NewJWTMiddleware(tokens ports.TokenValidator, users ports.UserRepository, logger *logrus.Logger) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens, users: users, logger: logger}
}

// RequireJWT validates the bearer access token and loads the acting user into the context
func (m *JWTMiddleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := helpers.GetJWTTokenFromContext(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			claims, err := m.tokens.ValidateToken(ctx, tokenString)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path, "error": err.Error()}).Warn("JWT validation failed")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			u, err := m.users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, ports.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
				}
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"user_id": claims.UserID}).WithError(err).Error("failed to load user for token")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
			}
			if !u.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "user account is inactive")
			}

			helpers.SetUserID(c, u.ID)
			helpers.SetUserEmail(c, u.Email)
			helpers.SetCurrentUser(c, u)

			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"user_id": u.ID}).Debug("jwt validated and user context set")
			}
			return next(c)
		}
	}
}
