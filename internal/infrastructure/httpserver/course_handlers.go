package httpserver

import (
	"net/http"
	"strconv"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/httpserver/helpers"
	"github.com/labstack/echo/v4"
)

func (s *Server) courseEntitlement(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}
	courseID, err := strconv.ParseInt(c.Param("course_id"), 10, 64)
	if err != nil || courseID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course ID")
	}

	entitled, err := s.subscriptions.IsEntitled(c.Request().Context(), userID, courseID)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, subscription.Entitlement{CourseID: courseID, Entitled: entitled})
}
