package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/google/uuid"
)

// MemoryUserRepository is an in-process UserRepository with the same conditional
// write semantics as the SQL implementation. Stored values are copied.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User

	// UpdateErr, when set, is returned by every write except Create.
	UpdateErr error
	Updates   int
}

func NewMemoryUserRepository(users ...*user.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: map[uuid.UUID]user.User{}}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
	}
	return r
}

func (r *MemoryUserRepository) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	c := cloneUser(&u)
	return &c, nil
}

func (r *MemoryUserRepository) GetByVerificationToken(ctx context.Context, token string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			c := cloneUser(&u)
			return &c, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *MemoryUserRepository) Update(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	if _, ok := r.users[u.ID]; !ok {
		return ports.ErrNotFound
	}
	r.Updates++
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *MemoryUserRepository) UpdateIfVerificationToken(ctx context.Context, u *user.User, expectedToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return false, r.UpdateErr
	}
	stored, ok := r.users[u.ID]
	if !ok || stored.VerificationToken == nil || *stored.VerificationToken != expectedToken {
		return false, nil
	}
	r.Updates++
	r.users[u.ID] = cloneUser(u)
	return true, nil
}

// SetPendingVerification touches only the pending columns of the stored row, like
// its SQL counterpart.
func (r *MemoryUserRepository) SetPendingVerification(ctx context.Context, id uuid.UUID, submittedEmail, token string, expiresAt, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	stored, ok := r.users[id]
	if !ok {
		return ports.ErrNotFound
	}
	r.Updates++
	stored.SubmittedEmail = &submittedEmail
	stored.VerificationToken = &token
	stored.VerificationTokenExpiresAt = &expiresAt
	stored.UpdatedAt = updatedAt
	r.users[id] = stored
	return nil
}

func (r *MemoryUserRepository) ClearPendingVerification(ctx context.Context, id uuid.UUID, expectedToken string, updatedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return false, r.UpdateErr
	}
	stored, ok := r.users[id]
	if !ok || stored.VerificationToken == nil || *stored.VerificationToken != expectedToken {
		return false, nil
	}
	r.Updates++
	stored.SubmittedEmail = nil
	stored.VerificationToken = nil
	stored.VerificationTokenExpiresAt = nil
	stored.UpdatedAt = updatedAt
	r.users[id] = stored
	return true, nil
}

// Snapshot returns the stored copy of a user, or nil.
func (r *MemoryUserRepository) Snapshot(id uuid.UUID) *user.User {
	u, err := r.GetByID(context.Background(), id)
	if err != nil {
		return nil
	}
	return u
}

func cloneUser(u *user.User) user.User {
	c := *u
	if u.SubmittedEmail != nil {
		v := *u.SubmittedEmail
		c.SubmittedEmail = &v
	}
	if u.VerificationToken != nil {
		v := *u.VerificationToken
		c.VerificationToken = &v
	}
	if u.VerificationTokenExpiresAt != nil {
		v := *u.VerificationTokenExpiresAt
		c.VerificationTokenExpiresAt = &v
	}
	return c
}

// MemorySubscriptionRepository is an in-process SubscriptionRepository enforcing the
// unique provider subscription id.
type MemorySubscriptionRepository struct {
	mu   sync.Mutex
	subs map[string]subscription.Subscription

	FindCalls int
}

func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{subs: map[string]subscription.Subscription{}}
}

func (r *MemorySubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.subs[sub.ProviderSubscriptionID]; exists {
		return ports.ErrDuplicateProviderSubscription
	}
	r.subs[sub.ProviderSubscriptionID] = *sub
	return nil
}

func (r *MemorySubscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[providerSubscriptionID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &s, nil
}

func (r *MemorySubscriptionRepository) UpdateStatus(ctx context.Context, providerSubscriptionID string, status subscription.Status, periodStart, periodEnd, updatedAt time.Time) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[providerSubscriptionID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	s.Status = status
	s.CurrentPeriodStart = periodStart
	s.CurrentPeriodEnd = periodEnd
	s.UpdatedAt = updatedAt
	r.subs[providerSubscriptionID] = s
	return &s, nil
}

func (r *MemorySubscriptionRepository) FindActiveForUserAndCourse(ctx context.Context, userID uuid.UUID, courseID int64, now time.Time) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	var out []*subscription.Subscription
	for _, s := range r.subs {
		if s.UserID == userID && s.CourseID == courseID && s.GrantsAccess(now) {
			c := s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrentPeriodEnd.After(out[j].CurrentPeriodEnd) })
	return out, nil
}

func (r *MemorySubscriptionRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
