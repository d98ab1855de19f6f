package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the subset of the account record this service reads and writes.
// Registration and login live in the identity backend.
type User struct {
	ID                         uuid.UUID  `json:"id" db:"id"`
	Email                      string     `json:"email" db:"email"`
	SubmittedEmail             *string    `json:"submitted_email,omitempty" db:"submitted_email"`
	VerificationToken          *string    `json:"-" db:"email_verification_token"`
	VerificationTokenExpiresAt *time.Time `json:"-" db:"email_verification_token_expires_at"`
	IsVerified                 bool       `json:"is_verified" db:"is_verified"`
	IsActive                   bool       `json:"is_active" db:"is_active"`
	CreatedAt                  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at" db:"updated_at"`
}

// HasPendingVerification reports whether a submitted email is waiting for confirmation.
func (u *User) HasPendingVerification() bool {
	return u.VerificationToken != nil
}

// TokenExpired reports whether the pending token is absent-dated or past its deadline.
func (u *User) TokenExpired(now time.Time) bool {
	if u.VerificationTokenExpiresAt == nil {
		return true
	}
	return !u.VerificationTokenExpiresAt.After(now)
}

// StartVerification records a candidate email together with its token and deadline.
func (u *User) StartVerification(email, token string, expiresAt, now time.Time) {
	u.SubmittedEmail = &email
	u.VerificationToken = &token
	u.VerificationTokenExpiresAt = &expiresAt
	u.UpdatedAt = now
}

// ClearVerification drops the token, its deadline and the submitted email together.
func (u *User) ClearVerification(now time.Time) {
	u.SubmittedEmail = nil
	u.VerificationToken = nil
	u.VerificationTokenExpiresAt = nil
	u.UpdatedAt = now
}

// PromoteSubmittedEmail makes the submitted email the confirmed one.
// It returns false when there is nothing to promote.
func (u *User) PromoteSubmittedEmail(now time.Time) bool {
	if u.SubmittedEmail == nil {
		return false
	}
	u.Email = *u.SubmittedEmail
	u.IsVerified = true
	u.ClearVerification(now)
	return true
}

// SubmitEmailRequest is the body of the submit-email call.
type SubmitEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyEmailRequest carries the token taken from the verification link.
type VerifyEmailRequest struct {
	Token string `json:"token" query:"token" validate:"required"`
}
