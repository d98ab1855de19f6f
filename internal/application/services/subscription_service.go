package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubscriptionConfig holds the frontend routes the checkout redirects to.
type SubscriptionConfig struct {
	FrontendURL string
}

type SubscriptionService struct {
	repo      ports.SubscriptionRepository
	gateway   ports.CheckoutGateway
	publisher ports.EventPublisher
	clock     ports.Clock
	cfg       SubscriptionConfig
	logger    *logrus.Logger
}

func NewSubscriptionService(repo ports.SubscriptionRepository, gateway ports.CheckoutGateway, publisher ports.EventPublisher, clock ports.Clock, cfg SubscriptionConfig, logger *logrus.Logger) ports.SubscriptionService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &SubscriptionService{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// InitiateCheckout opens a hosted checkout for planID. The subscription itself is
// recorded later, when the provider reports it.
func (s *SubscriptionService) InitiateCheckout(ctx context.Context, u *user.User, planID string) (string, error) {
	if u == nil || strings.TrimSpace(u.Email) == "" {
		checkoutSessions.WithLabelValues("missing_email").Inc()
		return "", ports.ErrMissingEmail
	}

	successURL := s.cfg.FrontendURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := s.cfg.FrontendURL + "/payment-cancel"

	sessionID, err := s.gateway.CreateCheckoutSession(ctx, u.ID, u.Email, planID, successURL, cancelURL)
	if err != nil {
		checkoutSessions.WithLabelValues("gateway_error").Inc()
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id": u.ID,
				"plan_id": planID,
			}).WithError(err).Error("checkout session creation failed")
		}
		return "", fmt.Errorf("%w: %w", ports.ErrPaymentGateway, err)
	}
	if sessionID == "" {
		checkoutSessions.WithLabelValues("gateway_error").Inc()
		return "", fmt.Errorf("%w: empty session id", ports.ErrPaymentGateway)
	}

	checkoutSessions.WithLabelValues("created").Inc()
	return sessionID, nil
}

func (s *SubscriptionService) CreateSubscription(ctx context.Context, req *subscription.CreateSubscriptionRequest) (*subscription.Subscription, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is required", ports.ErrInvalidSubscription)
	}
	if problem := req.Validate(); problem != "" {
		return nil, fmt.Errorf("%w: %s", ports.ErrInvalidSubscription, problem)
	}

	now := s.clock.Now()
	sub := &subscription.Subscription{
		ID:                     uuid.New(),
		UserID:                 req.UserID,
		CourseID:               req.CourseID,
		ProviderCustomerID:     req.ProviderCustomerID,
		ProviderSubscriptionID: req.ProviderSubscriptionID,
		PlanType:               req.PlanType,
		Status:                 req.Status,
		CurrentPeriodStart:     req.CurrentPeriodStart,
		CurrentPeriodEnd:       req.CurrentPeriodEnd,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, ports.ErrDuplicateProviderSubscription) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"subscription_id":          sub.ID,
			"provider_subscription_id": sub.ProviderSubscriptionID,
			"course_id":                sub.CourseID,
			"status":                   sub.Status,
		}).Info("subscription created")
	}
	publishEvent(ctx, s.publisher, s.logger, ports.EventSubscriptionCreated, now, sub)
	return sub, nil
}

// UpdateStatus overwrites status and period bounds. There is no transition table;
// the last reported state wins. An inverted period is rejected before any write.
func (s *SubscriptionService) UpdateStatus(ctx context.Context, providerSubscriptionID string, status subscription.Status, periodStart, periodEnd time.Time) (*subscription.Subscription, error) {
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("%w: current_period_end must be after current_period_start", ports.ErrInvalidSubscription)
	}
	now := s.clock.Now()
	sub, err := s.repo.UpdateStatus(ctx, providerSubscriptionID, status, periodStart, periodEnd, now)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update subscription status: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"provider_subscription_id": providerSubscriptionID,
			"status":                   status,
		}).Info("subscription status updated")
	}
	publishEvent(ctx, s.publisher, s.logger, ports.EventSubscriptionUpdated, now, sub)
	return sub, nil
}

func (s *SubscriptionService) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	return s.repo.GetByProviderSubscriptionID(ctx, providerSubscriptionID)
}

// IsEntitled reports whether userID holds an active, unexpired subscription to courseID.
func (s *SubscriptionService) IsEntitled(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	now := s.clock.Now()
	subs, err := s.repo.FindActiveForUserAndCourse(ctx, userID, courseID, now)
	if err != nil {
		return false, fmt.Errorf("failed to check entitlement: %w", err)
	}
	for _, sub := range subs {
		if sub.GrantsAccess(now) {
			return true, nil
		}
	}
	return false, nil
}
