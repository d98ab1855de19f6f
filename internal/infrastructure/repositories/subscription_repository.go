package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const subscriptionColumns = `id, user_id, course_id, provider_customer_id, provider_subscription_id, plan_type,
		status, current_period_start, current_period_end, created_at, updated_at`

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// SubscriptionRepository implements ports.SubscriptionRepository on Postgres
type SubscriptionRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewSubscriptionRepository(database *db.Database, logger *logrus.Logger) ports.SubscriptionRepository {
	return &SubscriptionRepository{db: database, logger: logger}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.DB.ExecContext(ctx, query,
		s.ID, s.UserID, s.CourseID, s.ProviderCustomerID, s.ProviderSubscriptionID, s.PlanType,
		s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return fmt.Errorf("%w: %s", ports.ErrDuplicateProviderSubscription, s.ProviderSubscriptionID)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{
				"provider_subscription_id": s.ProviderSubscriptionID,
			}).WithError(err).Error("db: failed to create subscription")
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"subscription_id": s.ID,
			"user_id":         s.UserID,
			"course_id":       s.CourseID,
		}).Info("db: subscription created")
	}
	return nil
}

func (r *SubscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE provider_subscription_id = $1`

	if err := r.db.DB.GetContext(ctx, &s, query, providerSubscriptionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: subscription %s", ports.ErrNotFound, providerSubscriptionID)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &s, nil
}

// UpdateStatus is a single statement so concurrent webhook deliveries resolve as
// last write wins.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, providerSubscriptionID string, status subscription.Status, periodStart, periodEnd, updatedAt time.Time) (*subscription.Subscription, error) {
	var s subscription.Subscription
	query := `
		UPDATE subscriptions
		SET status = $2, current_period_start = $3, current_period_end = $4, updated_at = $5
		WHERE provider_subscription_id = $1
		RETURNING ` + subscriptionColumns

	err := r.db.DB.GetContext(ctx, &s, query, providerSubscriptionID, status, periodStart, periodEnd, updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: subscription %s", ports.ErrNotFound, providerSubscriptionID)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{
				"provider_subscription_id": providerSubscriptionID,
			}).WithError(err).Error("db: failed to update subscription status")
		}
		return nil, fmt.Errorf("failed to update subscription status: %w", err)
	}
	return &s, nil
}

func (r *SubscriptionRepository) FindActiveForUserAndCourse(ctx context.Context, userID uuid.UUID, courseID int64, now time.Time) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND course_id = $2 AND status = $3 AND current_period_end > $4
		ORDER BY current_period_end DESC`

	if err := r.db.DB.SelectContext(ctx, &subs, query, userID, courseID, subscription.StatusActive, now); err != nil {
		return nil, fmt.Errorf("failed to find active subscriptions: %w", err)
	}
	return subs, nil
}

var _ ports.SubscriptionRepository = (*SubscriptionRepository)(nil)
