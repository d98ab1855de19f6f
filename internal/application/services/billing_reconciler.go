package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BillingReconciler struct {
	subscriptions ports.SubscriptionService
	plans         ports.PlanCatalog
	logger        *logrus.Logger
}

func NewBillingReconciler(subscriptions ports.SubscriptionService, plans ports.PlanCatalog, logger *logrus.Logger) ports.BillingReconciler {
	return &BillingReconciler{subscriptions: subscriptions, plans: plans, logger: logger}
}

// HandleEvent applies a verified provider event. Events that cannot be matched to a
// plan, a user or a stored subscription are logged and acknowledged.
func (r *BillingReconciler) HandleEvent(ctx context.Context, event *subscription.ProviderEvent) error {
	if event == nil {
		return nil
	}
	switch event.Kind {
	case subscription.EventSubscriptionCreated:
		return r.handleCreated(ctx, event)
	case subscription.EventSubscriptionUpdated, subscription.EventSubscriptionDeleted:
		return r.handleUpdated(ctx, event)
	default:
		subscriptionEvents.WithLabelValues(string(event.Kind), "ignored").Inc()
		return nil
	}
}

func (r *BillingReconciler) handleCreated(ctx context.Context, event *subscription.ProviderEvent) error {
	fields := r.eventFields(event)

	plan, ok := r.lookupPlan(event.PriceID)
	if !ok {
		subscriptionEvents.WithLabelValues(string(event.Kind), "unknown_price").Inc()
		if r.logger != nil {
			r.logger.WithFields(fields).Warn("billing event references an unknown price; dropped")
		}
		return nil
	}
	if event.UserID == uuid.Nil {
		subscriptionEvents.WithLabelValues(string(event.Kind), "missing_user").Inc()
		if r.logger != nil {
			r.logger.WithFields(fields).Warn("billing event carries no user reference; dropped")
		}
		return nil
	}

	_, err := r.subscriptions.CreateSubscription(ctx, &subscription.CreateSubscriptionRequest{
		UserID:                 event.UserID,
		CourseID:               plan.CourseID,
		ProviderCustomerID:     event.ProviderCustomerID,
		ProviderSubscriptionID: event.ProviderSubscriptionID,
		PlanType:               plan.PlanType,
		Status:                 event.Status,
		CurrentPeriodStart:     event.CurrentPeriodStart,
		CurrentPeriodEnd:       event.CurrentPeriodEnd,
	})
	switch {
	case err == nil:
		subscriptionEvents.WithLabelValues(string(event.Kind), "applied").Inc()
		return nil
	case errors.Is(err, ports.ErrDuplicateProviderSubscription):
		// replayed delivery: treat as an update
		return r.handleUpdated(ctx, event)
	case errors.Is(err, ports.ErrInvalidSubscription):
		subscriptionEvents.WithLabelValues(string(event.Kind), "invalid").Inc()
		if r.logger != nil {
			r.logger.WithFields(fields).WithError(err).Warn("billing event rejected")
		}
		return nil
	default:
		subscriptionEvents.WithLabelValues(string(event.Kind), "error").Inc()
		return fmt.Errorf("failed to apply %s: %w", event.Kind, err)
	}
}

func (r *BillingReconciler) handleUpdated(ctx context.Context, event *subscription.ProviderEvent) error {
	_, err := r.subscriptions.UpdateStatus(ctx, event.ProviderSubscriptionID, event.Status, event.CurrentPeriodStart, event.CurrentPeriodEnd)
	switch {
	case err == nil:
		subscriptionEvents.WithLabelValues(string(event.Kind), "applied").Inc()
		return nil
	case errors.Is(err, ports.ErrNotFound):
		subscriptionEvents.WithLabelValues(string(event.Kind), "not_found").Inc()
		if r.logger != nil {
			r.logger.WithFields(r.eventFields(event)).Warn("billing event for unknown subscription; dropped")
		}
		return nil
	case errors.Is(err, ports.ErrInvalidSubscription):
		// redelivery would carry the same periods
		subscriptionEvents.WithLabelValues(string(event.Kind), "invalid").Inc()
		if r.logger != nil {
			r.logger.WithFields(r.eventFields(event)).WithError(err).Warn("billing event rejected")
		}
		return nil
	default:
		subscriptionEvents.WithLabelValues(string(event.Kind), "error").Inc()
		return fmt.Errorf("failed to apply %s: %w", event.Kind, err)
	}
}

func (r *BillingReconciler) lookupPlan(priceID string) (subscription.Plan, bool) {
	if r.plans == nil || priceID == "" {
		return subscription.Plan{}, false
	}
	return r.plans.Lookup(priceID)
}

func (r *BillingReconciler) eventFields(event *subscription.ProviderEvent) logrus.Fields {
	return logrus.Fields{
		"event_id":                 event.ID,
		"event_type":               event.ProviderType,
		"provider_subscription_id": event.ProviderSubscriptionID,
		"price_id":                 event.PriceID,
	}
}
