package payment

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testSecret = "whsec_test"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func subscriptionEvent(eventType, status string, userID uuid.UUID) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_1",
  "object": "event",
  "type": %q,
  "data": {
    "object": {
      "id": "sub_123",
      "object": "subscription",
      "customer": "cus_9",
      "status": %q,
      "current_period_start": 1772359200,
      "current_period_end": 1775037600,
      "metadata": {"user_id": %q},
      "items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_monthly", "object": "price"}}]}
    }
  }
}`, eventType, status, userID.String()))
}

func sign(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testSecret}).Header
}

func TestDecode_SubscriptionCreated(t *testing.T) {
	userID := uuid.New()
	payload := subscriptionEvent("customer.subscription.created", "active", userID)

	ev, err := NewStripeWebhookDecoder(testSecret).Decode(payload, sign(payload))
	require.NoError(t, err)
	require.Equal(t, subscription.EventSubscriptionCreated, ev.Kind)
	require.Equal(t, "evt_1", ev.ID)
	require.Equal(t, "sub_123", ev.ProviderSubscriptionID)
	require.Equal(t, "cus_9", ev.ProviderCustomerID)
	require.Equal(t, "price_monthly", ev.PriceID)
	require.Equal(t, userID, ev.UserID)
	require.Equal(t, subscription.StatusActive, ev.Status)
	require.Equal(t, time.Unix(1772359200, 0).UTC(), ev.CurrentPeriodStart)
	require.Equal(t, time.Unix(1775037600, 0).UTC(), ev.CurrentPeriodEnd)
}

func TestDecode_StatusMapping(t *testing.T) {
	cases := []struct {
		eventType string
		status    string
		want      subscription.Status
	}{
		{"customer.subscription.updated", "trialing", subscription.StatusActive},
		{"customer.subscription.updated", "past_due", subscription.StatusPastDue},
		{"customer.subscription.updated", "unpaid", subscription.StatusPastDue},
		{"customer.subscription.updated", "incomplete", subscription.StatusIncomplete},
		{"customer.subscription.updated", "incomplete_expired", subscription.StatusCanceled},
		{"customer.subscription.deleted", "active", subscription.StatusCanceled},
	}
	for _, tc := range cases {
		t.Run(tc.eventType+"/"+tc.status, func(t *testing.T) {
			payload := subscriptionEvent(tc.eventType, tc.status, uuid.New())
			ev, err := NewStripeWebhookDecoder(testSecret).Decode(payload, sign(payload))
			require.NoError(t, err)
			require.Equal(t, tc.want, ev.Status)
		})
	}
}

func TestDecode_MissingUserMetadata(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.subscription.created","data":{"object":{"id":"sub_2","object":"subscription","status":"active","metadata":{}}}}`)
	ev, err := NewStripeWebhookDecoder(testSecret).Decode(payload, sign(payload))
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, ev.UserID)
	require.Empty(t, ev.PriceID)
}

func TestDecode_OtherEventsIgnored(t *testing.T) {
	payload := []byte(`{"id":"evt_3","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)
	ev, err := NewStripeWebhookDecoder(testSecret).Decode(payload, sign(payload))
	require.NoError(t, err)
	require.Equal(t, subscription.EventIgnored, ev.Kind)
	require.Equal(t, "invoice.paid", ev.ProviderType)
}

func TestDecode_RejectsBadSignature(t *testing.T) {
	payload := subscriptionEvent("customer.subscription.created", "active", uuid.New())

	_, err := NewStripeWebhookDecoder("whsec_other").Decode(payload, sign(payload))
	require.ErrorIs(t, err, ports.ErrInvalidWebhook)

	_, err = NewStripeWebhookDecoder(testSecret).Decode(payload, "")
	require.ErrorIs(t, err, ports.ErrInvalidWebhook)
}
