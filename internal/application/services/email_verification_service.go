package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/auth"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/user"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/utils"
	"github.com/sirupsen/logrus"
)

// EmailVerificationConfig controls the verification link and token lifetime.
type EmailVerificationConfig struct {
	ProjectName string
	BaseURL     string
	VerifyPath  string
	TokenTTL    time.Duration
}

const defaultVerificationTTL = 24 * time.Hour

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hi,</p>
<p>Please confirm this address for {{.ProjectName}} by clicking the link below:</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>This link expires in {{.ExpiresIn}}.</p>
<p>If you did not request this change, you can ignore this message.</p>
</body>
</html>`))

type EmailVerificationService struct {
	repo       ports.UserRepository
	dispatcher ports.EmailDispatcher
	issuer     ports.AuthTokenIssuer
	publisher  ports.EventPublisher
	tokens     ports.TokenGenerator
	clock      ports.Clock
	cfg        EmailVerificationConfig
	logger     *logrus.Logger
}

// NewEmailVerificationService wires the email confirmation lifecycle. A nil clock or
// token generator falls back to the system clock and 32-byte URL-safe tokens.
func NewEmailVerificationService(repo ports.UserRepository, dispatcher ports.EmailDispatcher, issuer ports.AuthTokenIssuer, publisher ports.EventPublisher, tokens ports.TokenGenerator, clock ports.Clock, cfg EmailVerificationConfig, logger *logrus.Logger) ports.EmailVerificationService {
	if tokens == nil {
		tokens = utils.URLSafeTokenGenerator{Bytes: utils.VerificationTokenBytes}
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultVerificationTTL
	}
	if cfg.VerifyPath == "" {
		cfg.VerifyPath = "/auth/verify-submitted-email"
	}
	return &EmailVerificationService{
		repo:       repo,
		dispatcher: dispatcher,
		issuer:     issuer,
		publisher:  publisher,
		tokens:     tokens,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// SubmitEmail records candidateEmail as pending and mails a verification link to it.
// If delivery fails the pending state is rolled back.
func (s *EmailVerificationService) SubmitEmail(ctx context.Context, u *user.User, candidateEmail string) error {
	if u == nil {
		return fmt.Errorf("user is required")
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	subject, body, err := s.composeVerificationEmail(token)
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	// u may predate a promotion committed elsewhere; only the pending columns are written
	if err := s.repo.SetPendingVerification(ctx, u.ID, candidateEmail, token, expiresAt, now); err != nil {
		return fmt.Errorf("failed to save verification token: %w", err)
	}
	u.StartVerification(candidateEmail, token, expiresAt, now)

	if s.dispatcher.Send(ctx, candidateEmail, subject, body) {
		emailVerificationOutcomes.WithLabelValues("submitted").Inc()
		if s.logger != nil {
			s.logger.WithField("user_id", u.ID).Info("verification email sent")
		}
		return nil
	}

	emailVerificationOutcomes.WithLabelValues("dispatch_failed").Inc()
	clearedAt := s.clock.Now()
	// a newer submission may have replaced the token; leave it alone in that case
	if _, err := s.repo.ClearPendingVerification(ctx, u.ID, token, clearedAt); err != nil {
		if s.logger != nil {
			s.logger.WithField("user_id", u.ID).WithError(err).Error("failed to roll back verification token")
		}
		return fmt.Errorf("%w: rollback failed: %w", ports.ErrEmailDispatchFailed, err)
	}
	u.ClearVerification(clearedAt)
	if s.logger != nil {
		s.logger.WithField("user_id", u.ID).Warn("verification email dispatch failed; pending email cleared")
	}
	return ports.ErrEmailDispatchFailed
}

// VerifyToken consumes token, promotes the submitted email and returns fresh credentials.
func (s *EmailVerificationService) VerifyToken(ctx context.Context, token string) (*auth.Credentials, error) {
	if token == "" {
		emailVerificationOutcomes.WithLabelValues("invalid_token").Inc()
		return nil, ports.ErrInvalidToken
	}

	u, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			emailVerificationOutcomes.WithLabelValues("invalid_token").Inc()
			return nil, ports.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up verification token: %w", err)
	}

	now := s.clock.Now()
	if u.TokenExpired(now) {
		emailVerificationOutcomes.WithLabelValues("expired").Inc()
		if _, err := s.repo.ClearPendingVerification(ctx, u.ID, token, now); err != nil {
			return nil, fmt.Errorf("failed to clear expired verification token: %w", err)
		}
		return nil, ports.ErrTokenExpired
	}

	if u.SubmittedEmail == nil {
		emailVerificationOutcomes.WithLabelValues("inconsistent").Inc()
		if s.logger != nil {
			s.logger.WithField("user_id", u.ID).Error("verification token present without a submitted email")
		}
		return nil, ports.ErrInconsistentState
	}

	u.PromoteSubmittedEmail(now)
	applied, err := s.repo.UpdateIfVerificationToken(ctx, u, token)
	if err != nil {
		return nil, fmt.Errorf("failed to promote submitted email: %w", err)
	}
	if !applied {
		emailVerificationOutcomes.WithLabelValues("invalid_token").Inc()
		return nil, ports.ErrInvalidToken
	}
	emailVerificationOutcomes.WithLabelValues("verified").Inc()
	publishEvent(ctx, s.publisher, s.logger, ports.EventEmailVerified, now, map[string]any{
		"user_id": u.ID,
		"email":   u.Email,
	})

	creds, err := s.issuer.IssueCredentialsFor(ctx, u)
	if err != nil {
		if s.logger != nil {
			s.logger.WithField("user_id", u.ID).WithError(err).Error("failed to issue credentials after verification")
		}
		return nil, fmt.Errorf("%w: %w", ports.ErrCredentialIssuanceFailed, err)
	}
	if !creds.Complete() {
		return nil, ports.ErrCredentialIssuanceFailed
	}
	return creds, nil
}

func (s *EmailVerificationService) composeVerificationEmail(token string) (string, string, error) {
	link := s.cfg.BaseURL + s.cfg.VerifyPath + "?token=" + url.QueryEscape(token)
	var buf bytes.Buffer
	err := verificationTemplate.Execute(&buf, map[string]string{
		"ProjectName": s.cfg.ProjectName,
		"Link":        link,
		"ExpiresIn":   humanizeTTL(s.cfg.TokenTTL),
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Verify your email for %s", s.cfg.ProjectName), buf.String(), nil
}

func humanizeTTL(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}
