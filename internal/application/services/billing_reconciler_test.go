package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	impl "github.com/deathnote2501/consultant-ia-generative/internal/application/services"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	tmocks "github.com/deathnote2501/consultant-ia-generative/test/mocks"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testPlans = tmocks.StaticPlanCatalog{
	"price_monthly": {PriceID: "price_monthly", CourseID: 3, PlanType: "monthly"},
}

func newReconciler(t *testing.T) (*tmocks.MemorySubscriptionRepository, *tmocks.FixedClock, func(*subscription.ProviderEvent) error, func(uuid.UUID, int64) bool) {
	t.Helper()
	repo := tmocks.NewMemorySubscriptionRepository()
	clock := tmocks.NewFixedClock(t0)
	svc := newSubscriptionService(repo, &tmocks.CheckoutGatewayMock{}, nil, clock)
	r := impl.NewBillingReconciler(svc, testPlans, logrus.New())
	handle := func(e *subscription.ProviderEvent) error { return r.HandleEvent(context.Background(), e) }
	entitled := func(userID uuid.UUID, course int64) bool {
		ok, err := svc.IsEntitled(context.Background(), userID, course)
		require.NoError(t, err)
		return ok
	}
	return repo, clock, handle, entitled
}

func providerEvent(kind subscription.EventKind, userID uuid.UUID, status subscription.Status) *subscription.ProviderEvent {
	return &subscription.ProviderEvent{
		ID:                     "evt_1",
		Kind:                   kind,
		ProviderSubscriptionID: "sub_1",
		ProviderCustomerID:     "cus_1",
		PriceID:                "price_monthly",
		UserID:                 userID,
		Status:                 status,
		CurrentPeriodStart:     t0,
		CurrentPeriodEnd:       t0.Add(30 * 24 * time.Hour),
	}
}

func TestReconciler_CreateThenCancel(t *testing.T) {
	repo, _, handle, entitled := newReconciler(t)
	userID := uuid.New()

	require.NoError(t, handle(providerEvent(subscription.EventSubscriptionCreated, userID, subscription.StatusActive)))
	require.Equal(t, 1, repo.Count())
	require.True(t, entitled(userID, 3))

	sub, err := repo.GetByProviderSubscriptionID(context.Background(), "sub_1")
	require.NoError(t, err)
	require.Equal(t, "monthly", sub.PlanType)
	require.Equal(t, "cus_1", sub.ProviderCustomerID)

	require.NoError(t, handle(providerEvent(subscription.EventSubscriptionDeleted, userID, subscription.StatusCanceled)))
	require.False(t, entitled(userID, 3))
}

func TestReconciler_ReplayedCreateBecomesUpdate(t *testing.T) {
	repo, _, handle, entitled := newReconciler(t)
	userID := uuid.New()

	require.NoError(t, handle(providerEvent(subscription.EventSubscriptionCreated, userID, subscription.StatusIncomplete)))
	require.False(t, entitled(userID, 3))
	require.NoError(t, handle(providerEvent(subscription.EventSubscriptionCreated, userID, subscription.StatusActive)))
	require.Equal(t, 1, repo.Count())
	require.True(t, entitled(userID, 3))
}

func TestReconciler_DropsUnmatchedEvents(t *testing.T) {
	repo, _, handle, _ := newReconciler(t)

	unknownPrice := providerEvent(subscription.EventSubscriptionCreated, uuid.New(), subscription.StatusActive)
	unknownPrice.PriceID = "price_other"
	require.NoError(t, handle(unknownPrice))

	noUser := providerEvent(subscription.EventSubscriptionCreated, uuid.Nil, subscription.StatusActive)
	require.NoError(t, handle(noUser))

	update := providerEvent(subscription.EventSubscriptionUpdated, uuid.New(), subscription.StatusPastDue)
	update.ProviderSubscriptionID = "sub_never_seen"
	require.NoError(t, handle(update))

	badPeriod := providerEvent(subscription.EventSubscriptionCreated, uuid.New(), subscription.StatusActive)
	badPeriod.CurrentPeriodEnd = badPeriod.CurrentPeriodStart
	require.NoError(t, handle(badPeriod))

	require.NoError(t, handle(&subscription.ProviderEvent{Kind: subscription.EventIgnored}))
	require.NoError(t, handle(nil))
	require.Equal(t, 0, repo.Count())
}

func TestReconciler_DropsUpdateWithInvertedPeriod(t *testing.T) {
	repo, _, handle, entitled := newReconciler(t)
	userID := uuid.New()
	require.NoError(t, handle(providerEvent(subscription.EventSubscriptionCreated, userID, subscription.StatusActive)))

	inverted := providerEvent(subscription.EventSubscriptionUpdated, userID, subscription.StatusCanceled)
	inverted.CurrentPeriodEnd = inverted.CurrentPeriodStart.Add(-time.Hour)
	require.NoError(t, handle(inverted))

	sub, err := repo.GetByProviderSubscriptionID(context.Background(), "sub_1")
	require.NoError(t, err)
	require.Equal(t, subscription.StatusActive, sub.Status)
	require.True(t, entitled(userID, 3))

	// a replayed create with an inverted period is rejected before it reaches the store
	replay := providerEvent(subscription.EventSubscriptionCreated, userID, subscription.StatusCanceled)
	replay.CurrentPeriodEnd = replay.CurrentPeriodStart
	require.NoError(t, handle(replay))
	require.True(t, entitled(userID, 3))
}

func TestReconciler_PropagatesStorageErrors(t *testing.T) {
	svc := &tmocks.SubscriptionServiceMock{
		UpdateStatusFn: func(ctx context.Context, id string, status subscription.Status, s, e time.Time) (*subscription.Subscription, error) {
			return nil, errors.New("db down")
		},
	}
	r := impl.NewBillingReconciler(svc, testPlans, nil)
	err := r.HandleEvent(context.Background(), providerEvent(subscription.EventSubscriptionUpdated, uuid.New(), subscription.StatusActive))
	require.Error(t, err)
}
