package ports

import (
	"context"
	"time"
)

// Domain event routing keys.
const (
	EventEmailVerified       = "email.verified"
	EventSubscriptionCreated = "subscription.created"
	EventSubscriptionUpdated = "subscription.updated"
)

// DomainEvent is published after a committed state change.
type DomainEvent struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// EventPublisher delivers domain events to downstream consumers.
// Publishing is best-effort: callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// Clock abstracts wall time so expiry logic can be tested.
type Clock interface {
	Now() time.Time
}

// TokenGenerator produces unguessable URL-safe tokens.
type TokenGenerator interface {
	Generate() (string, error)
}
