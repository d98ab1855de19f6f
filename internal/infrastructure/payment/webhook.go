package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ProviderStripe tags events decoded by StripeWebhookDecoder.
const ProviderStripe = "stripe"

// StripeWebhookDecoder verifies the Stripe-Signature header and reduces
// customer.subscription.* events to subscription.ProviderEvent.
type StripeWebhookDecoder struct {
	secret string
}

func NewStripeWebhookDecoder(secret string) *StripeWebhookDecoder {
	return &StripeWebhookDecoder{secret: secret}
}

func (d *StripeWebhookDecoder) Decode(payload []byte, signatureHeader string) (*subscription.ProviderEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, d.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidWebhook, err)
	}

	out := &subscription.ProviderEvent{
		ID:           event.ID,
		ProviderType: string(event.Type),
		Kind:         subscription.EventIgnored,
	}
	switch event.Type {
	case "customer.subscription.created":
		out.Kind = subscription.EventSubscriptionCreated
	case "customer.subscription.updated":
		out.Kind = subscription.EventSubscriptionUpdated
	case "customer.subscription.deleted":
		out.Kind = subscription.EventSubscriptionDeleted
	default:
		return out, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ports.ErrInvalidWebhook, event.ID)
	}
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidWebhook, err)
	}

	out.ProviderSubscriptionID = sub.ID
	if sub.Customer != nil {
		out.ProviderCustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	if id, err := uuid.Parse(sub.Metadata[metadataUserID]); err == nil {
		out.UserID = id
	}
	out.CurrentPeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
	out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	out.Status = mapStatus(sub.Status)
	if out.Kind == subscription.EventSubscriptionDeleted {
		out.Status = subscription.StatusCanceled
	}
	return out, nil
}

// mapStatus folds Stripe's subscription states into the four stored ones.
func mapStatus(s stripe.SubscriptionStatus) subscription.Status {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return subscription.StatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return subscription.StatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return subscription.StatusCanceled
	default:
		return subscription.StatusIncomplete
	}
}

var _ ports.BillingWebhookDecoder = (*StripeWebhookDecoder)(nil)
