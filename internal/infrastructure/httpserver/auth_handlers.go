package httpserver

import (
	"net/http"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/auth"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/httpserver/helpers"
	"github.com/labstack/echo/v4"
)

// verifySubmittedEmail accepts the token from the emailed link (GET query) or an
// API call (POST query or JSON body) and answers with fresh credentials.
func (s *Server) verifySubmittedEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" && c.Request().Method == http.MethodPost && c.Request().ContentLength != 0 {
		var req user.VerifyEmailRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		token = req.Token
	}

	creds, err := s.emailVerification.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, creds)
}

func (s *Server) refreshCredentials(c echo.Context) error {
	var req auth.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	creds, err := s.sessions.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, creds)
}

func (s *Server) logout(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req auth.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.sessions.Logout(c.Request().Context(), userID, req.RefreshToken); err != nil {
		return s.mapError(c, err)
	}
	return c.NoContent(http.StatusOK)
}
