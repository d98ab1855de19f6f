package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/auth"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/google/uuid"
)

// EmailDispatcherMock records every message and reports SendFn's verdict (true by default).
type EmailDispatcherMock struct {
	SendFn func(ctx context.Context, to, subject, htmlBody string) bool

	mu   sync.Mutex
	Sent []SentEmail
}

type SentEmail struct {
	To      string
	Subject string
	Body    string
}

func (m *EmailDispatcherMock) Send(ctx context.Context, to, subject, htmlBody string) bool {
	m.mu.Lock()
	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject, Body: htmlBody})
	m.mu.Unlock()
	if m.SendFn != nil {
		return m.SendFn(ctx, to, subject, htmlBody)
	}
	return true
}

// CheckoutGatewayMock is a lightweight mock for CheckoutGateway
type CheckoutGatewayMock struct {
	CreateCheckoutSessionFn func(ctx context.Context, userID uuid.UUID, email, planID, successURL, cancelURL string) (string, error)
	Calls                   int
}

func (m *CheckoutGatewayMock) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email, planID, successURL, cancelURL string) (string, error) {
	m.Calls++
	if m.CreateCheckoutSessionFn != nil {
		return m.CreateCheckoutSessionFn(ctx, userID, email, planID, successURL, cancelURL)
	}
	return "cs_test_" + planID, nil
}

// AuthTokenIssuerMock returns a fixed bearer pair unless IssueFn is set.
type AuthTokenIssuerMock struct {
	IssueFn func(ctx context.Context, u *user.User) (*auth.Credentials, error)

	mu     sync.Mutex
	Issued []uuid.UUID
}

func (m *AuthTokenIssuerMock) IssueCredentialsFor(ctx context.Context, u *user.User) (*auth.Credentials, error) {
	m.mu.Lock()
	m.Issued = append(m.Issued, u.ID)
	m.mu.Unlock()
	if m.IssueFn != nil {
		return m.IssueFn(ctx, u)
	}
	return &auth.Credentials{AccessToken: "access-" + u.ID.String(), RefreshToken: "refresh-" + u.ID.String(), TokenType: auth.BearerTokenType}, nil
}

// TokenValidatorMock is a lightweight mock for TokenValidator
type TokenValidatorMock struct {
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

func (m *TokenValidatorMock) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return nil, fmt.Errorf("invalid token")
}

// RefreshTokenStoreMock is a lightweight mock for RefreshTokenStore
type RefreshTokenStoreMock struct {
	StoreRefreshTokenFn  func(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshTokenFn    func(ctx context.Context, token string) (*ports.RefreshToken, error)
	DeleteRefreshTokenFn func(ctx context.Context, token string) error
}

func (m *RefreshTokenStoreMock) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	if m.StoreRefreshTokenFn != nil {
		return m.StoreRefreshTokenFn(ctx, userID, token, expiresAt)
	}
	return nil
}
func (m *RefreshTokenStoreMock) GetRefreshToken(ctx context.Context, token string) (*ports.RefreshToken, error) {
	if m.GetRefreshTokenFn != nil {
		return m.GetRefreshTokenFn(ctx, token)
	}
	return nil, ports.ErrNotFound
}
func (m *RefreshTokenStoreMock) DeleteRefreshToken(ctx context.Context, token string) error {
	if m.DeleteRefreshTokenFn != nil {
		return m.DeleteRefreshTokenFn(ctx, token)
	}
	return nil
}

// EventPublisherMock captures published events.
type EventPublisherMock struct {
	PublishFn func(ctx context.Context, event ports.DomainEvent) error

	mu     sync.Mutex
	Events []ports.DomainEvent
}

func (m *EventPublisherMock) Publish(ctx context.Context, event ports.DomainEvent) error {
	m.mu.Lock()
	m.Events = append(m.Events, event)
	m.mu.Unlock()
	if m.PublishFn != nil {
		return m.PublishFn(ctx, event)
	}
	return nil
}

func (m *EventPublisherMock) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e.Type)
	}
	return out
}

// EmailVerificationServiceMock is a lightweight mock implementing ports.EmailVerificationService
type EmailVerificationServiceMock struct {
	SubmitEmailFn func(ctx context.Context, u *user.User, candidateEmail string) error
	VerifyTokenFn func(ctx context.Context, token string) (*auth.Credentials, error)
}

func (m *EmailVerificationServiceMock) SubmitEmail(ctx context.Context, u *user.User, candidateEmail string) error {
	if m.SubmitEmailFn != nil {
		return m.SubmitEmailFn(ctx, u, candidateEmail)
	}
	return nil
}
func (m *EmailVerificationServiceMock) VerifyToken(ctx context.Context, token string) (*auth.Credentials, error) {
	if m.VerifyTokenFn != nil {
		return m.VerifyTokenFn(ctx, token)
	}
	return nil, ports.ErrInvalidToken
}

// SubscriptionServiceMock is a lightweight mock implementing ports.SubscriptionService
type SubscriptionServiceMock struct {
	InitiateCheckoutFn            func(ctx context.Context, u *user.User, planID string) (string, error)
	CreateSubscriptionFn          func(ctx context.Context, req *subscription.CreateSubscriptionRequest) (*subscription.Subscription, error)
	UpdateStatusFn                func(ctx context.Context, providerSubscriptionID string, status subscription.Status, periodStart, periodEnd time.Time) (*subscription.Subscription, error)
	GetByProviderSubscriptionIDFn func(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error)
	IsEntitledFn                  func(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error)
}

func (m *SubscriptionServiceMock) InitiateCheckout(ctx context.Context, u *user.User, planID string) (string, error) {
	if m.InitiateCheckoutFn != nil {
		return m.InitiateCheckoutFn(ctx, u, planID)
	}
	return "cs_test", nil
}
func (m *SubscriptionServiceMock) CreateSubscription(ctx context.Context, req *subscription.CreateSubscriptionRequest) (*subscription.Subscription, error) {
	if m.CreateSubscriptionFn != nil {
		return m.CreateSubscriptionFn(ctx, req)
	}
	return &subscription.Subscription{ID: uuid.New(), ProviderSubscriptionID: req.ProviderSubscriptionID}, nil
}
func (m *SubscriptionServiceMock) UpdateStatus(ctx context.Context, providerSubscriptionID string, status subscription.Status, periodStart, periodEnd time.Time) (*subscription.Subscription, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, providerSubscriptionID, status, periodStart, periodEnd)
	}
	return nil, ports.ErrNotFound
}
func (m *SubscriptionServiceMock) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	if m.GetByProviderSubscriptionIDFn != nil {
		return m.GetByProviderSubscriptionIDFn(ctx, providerSubscriptionID)
	}
	return nil, ports.ErrNotFound
}
func (m *SubscriptionServiceMock) IsEntitled(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	if m.IsEntitledFn != nil {
		return m.IsEntitledFn(ctx, userID, courseID)
	}
	return false, nil
}

// BillingReconcilerMock is a lightweight mock implementing ports.BillingReconciler
type BillingReconcilerMock struct {
	HandleEventFn func(ctx context.Context, event *subscription.ProviderEvent) error
	Handled       []*subscription.ProviderEvent
}

func (m *BillingReconcilerMock) HandleEvent(ctx context.Context, event *subscription.ProviderEvent) error {
	m.Handled = append(m.Handled, event)
	if m.HandleEventFn != nil {
		return m.HandleEventFn(ctx, event)
	}
	return nil
}

// BillingWebhookDecoderMock is a lightweight mock implementing ports.BillingWebhookDecoder
type BillingWebhookDecoderMock struct {
	DecodeFn func(payload []byte, signatureHeader string) (*subscription.ProviderEvent, error)
}

func (m *BillingWebhookDecoderMock) Decode(payload []byte, signatureHeader string) (*subscription.ProviderEvent, error) {
	if m.DecodeFn != nil {
		return m.DecodeFn(payload, signatureHeader)
	}
	return &subscription.ProviderEvent{Kind: subscription.EventIgnored}, nil
}

// HealthCheckerMock is a lightweight mock implementing ports.HealthChecker
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}

// FixedClock is a settable clock for expiry tests.
type FixedClock struct {
	mu sync.Mutex
	T  time.Time
}

func NewFixedClock(t time.Time) *FixedClock { return &FixedClock{T: t} }

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.T
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.T = c.T.Add(d)
	c.mu.Unlock()
}

// SequenceTokens yields tok-1, tok-2, ... unless GenerateFn is set.
type SequenceTokens struct {
	GenerateFn func() (string, error)

	mu sync.Mutex
	n  int
}

func (g *SequenceTokens) Generate() (string, error) {
	if g.GenerateFn != nil {
		return g.GenerateFn()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("tok-%d", g.n), nil
}

// StaticPlanCatalog implements ports.PlanCatalog over a map.
type StaticPlanCatalog map[string]subscription.Plan

func (c StaticPlanCatalog) Lookup(priceID string) (subscription.Plan, bool) {
	p, ok := c[priceID]
	return p, ok
}

// RateLimiterMock implements ports.RateLimiter. It allows every call unless AllowFn is set.
type RateLimiterMock struct {
	AllowFn func(ctx context.Context, subject string) (bool, int, int, time.Time, error)

	mu       sync.Mutex
	Subjects []string
}

func (m *RateLimiterMock) Allow(ctx context.Context, subject string) (bool, int, int, time.Time, error) {
	m.mu.Lock()
	m.Subjects = append(m.Subjects, subject)
	m.mu.Unlock()
	if m.AllowFn != nil {
		return m.AllowFn(ctx, subject)
	}
	return true, 4, 5, time.Now().Add(time.Minute), nil
}

// SessionServiceMock is a lightweight mock for ports.SessionService
type SessionServiceMock struct {
	RefreshFn func(ctx context.Context, refreshToken string) (*auth.Credentials, error)
	LogoutFn  func(ctx context.Context, userID uuid.UUID, refreshToken string) error
}

func (m *SessionServiceMock) Refresh(ctx context.Context, refreshToken string) (*auth.Credentials, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return &auth.Credentials{AccessToken: "a2", RefreshToken: "r2", TokenType: auth.BearerTokenType}, nil
}

func (m *SessionServiceMock) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx, userID, refreshToken)
	}
	return nil
}
