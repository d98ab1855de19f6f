package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Status mirrors the billing provider's subscription state. Values outside the
// constants below are stored as-is.
type Status string

const (
	StatusActive     Status = "active"
	StatusCanceled   Status = "canceled"
	StatusPastDue    Status = "past_due"
	StatusIncomplete Status = "incomplete"
)

func (s Status) String() string {
	return string(s)
}

// Subscription links a user to paid access for a single course.
type Subscription struct {
	ID                     uuid.UUID `json:"id" db:"id"`
	UserID                 uuid.UUID `json:"user_id" db:"user_id"`
	CourseID               int64     `json:"course_id" db:"course_id"`
	ProviderCustomerID     string    `json:"provider_customer_id" db:"provider_customer_id"`
	ProviderSubscriptionID string    `json:"provider_subscription_id" db:"provider_subscription_id"`
	PlanType               string    `json:"plan_type" db:"plan_type"`
	Status                 Status    `json:"status" db:"status"`
	CurrentPeriodStart     time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd       time.Time `json:"current_period_end" db:"current_period_end"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// GrantsAccess reports whether the subscription entitles its user at now.
func (s *Subscription) GrantsAccess(now time.Time) bool {
	return s.Status == StatusActive && s.CurrentPeriodEnd.After(now)
}

// CreateSubscriptionRequest carries the fields reported by the billing provider
// when a subscription comes into existence.
type CreateSubscriptionRequest struct {
	UserID                 uuid.UUID `json:"user_id"`
	CourseID               int64     `json:"course_id"`
	ProviderCustomerID     string    `json:"provider_customer_id"`
	ProviderSubscriptionID string    `json:"provider_subscription_id"`
	PlanType               string    `json:"plan_type"`
	Status                 Status    `json:"status"`
	CurrentPeriodStart     time.Time `json:"current_period_start"`
	CurrentPeriodEnd       time.Time `json:"current_period_end"`
}

// Validate returns a description of the first problem found, or "".
func (r *CreateSubscriptionRequest) Validate() string {
	switch {
	case r.UserID == uuid.Nil:
		return "user_id is required"
	case r.CourseID <= 0:
		return "course_id must be positive"
	case r.ProviderSubscriptionID == "":
		return "provider_subscription_id is required"
	case r.Status == "":
		return "status is required"
	case !r.CurrentPeriodEnd.After(r.CurrentPeriodStart):
		return "current_period_end must be after current_period_start"
	}
	return ""
}

// CreateCheckoutRequest is the body of the checkout call.
type CreateCheckoutRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// CheckoutSessionResponse is returned to the client after a checkout session is opened.
type CheckoutSessionResponse struct {
	CheckoutSessionID string `json:"checkout_session_id"`
}

// Entitlement is the answer to "may this user open this course now".
type Entitlement struct {
	CourseID int64 `json:"course_id"`
	Entitled bool  `json:"entitled"`
}

// Plan is a catalog entry resolving a provider price to a course and plan tag.
type Plan struct {
	PriceID  string
	CourseID int64
	PlanType string
}
