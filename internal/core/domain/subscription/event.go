package subscription

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies a billing provider notification the service reacts to.
type EventKind string

const (
	EventSubscriptionCreated EventKind = "subscription.created"
	EventSubscriptionUpdated EventKind = "subscription.updated"
	EventSubscriptionDeleted EventKind = "subscription.deleted"
	EventIgnored             EventKind = "ignored"
)

// ProviderEvent is a provider-neutral view of a verified webhook payload.
type ProviderEvent struct {
	ID                     string
	Kind                   EventKind
	ProviderType           string
	ProviderSubscriptionID string
	ProviderCustomerID     string
	PriceID                string
	UserID                 uuid.UUID
	Status                 Status
	CurrentPeriodStart     time.Time
	CurrentPeriodEnd       time.Time
}
