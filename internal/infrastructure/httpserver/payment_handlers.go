package httpserver

import (
	"io"
	"net/http"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/httpserver/helpers"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// maxWebhookBodyBytes matches the payload ceiling Stripe documents for events.
const maxWebhookBodyBytes = 65536

func (s *Server) createCheckoutSession(c echo.Context) error {
	current, err := helpers.GetCurrentUserFromContext(c)
	if err != nil {
		return err
	}

	var req subscription.CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sessionID, err := s.subscriptions.InitiateCheckout(c.Request().Context(), current, req.PlanID)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, subscription.CheckoutSessionResponse{CheckoutSessionID: sessionID})
}

// billingWebhook verifies and applies a billing provider notification. Events the
// reconciler chooses to drop still answer 200 so the provider stops retrying.
func (s *Server) billingWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	if len(payload) > maxWebhookBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
	}

	event, err := s.webhookDecoder.Decode(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		if s.logger != nil {
			s.logger.WithField("ip", c.RealIP()).WithError(err).Warn("rejected billing webhook")
		}
		return s.mapError(c, err)
	}

	if err := s.reconciler.HandleEvent(c.Request().Context(), event); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.ProviderType,
			}).WithError(err).Error("failed to apply billing webhook")
		}
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
