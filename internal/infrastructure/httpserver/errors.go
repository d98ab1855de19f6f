package httpserver

import (
	"errors"
	"net/http"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var statusByCode = map[string]int{
	ports.CodeInvalidToken:                  http.StatusBadRequest,
	ports.CodeTokenExpired:                  http.StatusBadRequest,
	ports.CodeInconsistentState:             http.StatusConflict,
	ports.CodeCredentialIssuanceFailed:      http.StatusInternalServerError,
	ports.CodeEmailDispatchFailed:           http.StatusBadGateway,
	ports.CodeDuplicateProviderSubscription: http.StatusConflict,
	ports.CodePaymentGatewayError:           http.StatusBadGateway,
	ports.CodeNotFound:                      http.StatusNotFound,
	ports.CodeMissingEmail:                  http.StatusBadRequest,
	ports.CodeInvalidSubscription:           http.StatusUnprocessableEntity,
	ports.CodeInvalidWebhook:                http.StatusBadRequest,
	ports.CodeInvalidRefreshToken:           http.StatusUnauthorized,
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// mapError turns a service error into an HTTP error carrying {code, message}.
// Anything that is not a DomainError becomes an opaque 500.
func (s *Server) mapError(c echo.Context, err error) *echo.HTTPError {
	var de ports.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code()]
		if !ok {
			status = http.StatusInternalServerError
		}
		if status >= 500 && s.logger != nil {
			s.logger.WithFields(logrus.Fields{"path": c.Path(), "code": de.Code()}).WithError(err).Error("request failed")
		}
		return echo.NewHTTPError(status, errorBody{Code: de.Code(), Message: de.Message()}).SetInternal(err)
	}
	if s.logger != nil {
		s.logger.WithField("path", c.Path()).WithError(err).Error("unexpected error")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "Internal server error."}).SetInternal(err)
}
