package httpserver

import (
	"net/http"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/httpserver/helpers"
	"github.com/labstack/echo/v4"
)

type messageResponse struct {
	Message string `json:"message"`
}

// submitEmail starts verification of a new address for the authenticated user.
func (s *Server) submitEmail(c echo.Context) error {
	current, err := helpers.GetCurrentUserFromContext(c)
	if err != nil {
		return err
	}

	var req user.SubmitEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.emailVerification.SubmitEmail(c.Request().Context(), current, req.Email); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Verification email sent successfully. Please check your inbox."})
}
