package payment

import (
	"context"
	"fmt"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

const metadataUserID = "user_id"

// StripeCheckoutGateway opens subscription-mode Stripe Checkout sessions
type StripeCheckoutGateway struct {
	sessions session.Client
	logger   *logrus.Logger
}

// NewStripeCheckoutGateway uses the default Stripe API backend.
func NewStripeCheckoutGateway(secretKey string, logger *logrus.Logger) *StripeCheckoutGateway {
	return NewStripeCheckoutGatewayWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend), logger)
}

func NewStripeCheckoutGatewayWithBackend(secretKey string, backend stripe.Backend, logger *logrus.Logger) *StripeCheckoutGateway {
	if logger == nil {
		logger = logrus.New()
	}
	return &StripeCheckoutGateway{
		sessions: session.Client{B: backend, Key: secretKey},
		logger:   logger,
	}
}

// CreateCheckoutSession is called exactly once per request; the Stripe client is
// configured by the caller and this method adds no retry of its own.
func (g *StripeCheckoutGateway) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email, planID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(planID),
				Quantity: stripe.Int64(1),
			},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
		CustomerEmail:      stripe.String(email),
		ClientReferenceID:  stripe.String(userID.String()),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataUserID: userID.String()},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, userID.String())

	g.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"plan_id": planID,
	}).Info("Creating Stripe checkout session")

	cs, err := g.sessions.New(params)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"plan_id": planID,
		}).WithError(err).Error("Stripe API error while creating checkout session")
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": cs.ID,
	}).Info("Stripe checkout session created")
	return cs.ID, nil
}

var _ ports.CheckoutGateway = (*StripeCheckoutGateway)(nil)
