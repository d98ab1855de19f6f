package ports

import (
	"context"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/google/uuid"
)

// CheckoutGateway opens a hosted checkout at the billing provider and returns its session id.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email, planID, successURL, cancelURL string) (string, error)
}

// SubscriptionRepository defines the interface for subscription data operations
type SubscriptionRepository interface {
	// Create returns ErrDuplicateProviderSubscription when the provider id is taken.
	Create(ctx context.Context, sub *subscription.Subscription) error
	GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error)
	// UpdateStatus applies the new state in one statement and returns the stored row,
	// or ErrNotFound without writing.
	UpdateStatus(ctx context.Context, providerSubscriptionID string, status subscription.Status, periodStart, periodEnd, updatedAt time.Time) (*subscription.Subscription, error)
	// FindActiveForUserAndCourse returns the subscriptions granting access at now.
	FindActiveForUserAndCourse(ctx context.Context, userID uuid.UUID, courseID int64, now time.Time) ([]*subscription.Subscription, error)
}

// SubscriptionService defines the interface for subscription business logic
type SubscriptionService interface {
	InitiateCheckout(ctx context.Context, u *user.User, planID string) (string, error)
	CreateSubscription(ctx context.Context, req *subscription.CreateSubscriptionRequest) (*subscription.Subscription, error)
	UpdateStatus(ctx context.Context, providerSubscriptionID string, status subscription.Status, periodStart, periodEnd time.Time) (*subscription.Subscription, error)
	GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error)
	IsEntitled(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error)
}

// BillingWebhookDecoder authenticates a raw provider callback and converts it.
type BillingWebhookDecoder interface {
	Decode(payload []byte, signatureHeader string) (*subscription.ProviderEvent, error)
}

// BillingReconciler applies provider events to stored subscriptions.
type BillingReconciler interface {
	HandleEvent(ctx context.Context, event *subscription.ProviderEvent) error
}

// PlanCatalog resolves provider price ids to the course they unlock.
type PlanCatalog interface {
	Lookup(priceID string) (subscription.Plan, bool)
}
