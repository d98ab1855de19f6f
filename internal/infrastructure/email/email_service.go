package email

import (
	"context"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// EmailConfig holds email service configuration
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// mailSender is the part of *sendgrid.Client the dispatcher uses.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridDispatcher implements ports.EmailDispatcher on top of SendGrid
type SendGridDispatcher struct {
	config *EmailConfig
	logger *logrus.Logger
	client mailSender
}

// NewSendGridDispatcher creates a dispatcher backed by the SendGrid v3 mail API
func NewSendGridDispatcher(config *EmailConfig, logger *logrus.Logger) *SendGridDispatcher {
	return newDispatcher(config, sendgrid.NewSendClient(config.SendGridAPIKey), logger)
}

func newDispatcher(config *EmailConfig, client mailSender, logger *logrus.Logger) *SendGridDispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &SendGridDispatcher{config: config, logger: logger, client: client}
}

// Send delivers a single HTML message. Any transport error or non-2xx response
// reports false.
func (e *SendGridDispatcher) Send(ctx context.Context, to, subject, htmlBody string) bool {
	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, "", htmlBody)

	response, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).WithError(err).Error("Failed to send email")
		return false
	}
	if response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
		fields := logrus.Fields{"to": to, "subject": subject}
		if response != nil {
			fields["status_code"] = response.StatusCode
			fields["body"] = response.Body
		}
		e.logger.WithFields(fields).Error("Email provider rejected message")
		return false
	}

	e.logger.WithFields(logrus.Fields{
		"to":          to,
		"subject":     subject,
		"status_code": response.StatusCode,
	}).Info("Email sent successfully")
	return true
}

var _ ports.EmailDispatcher = (*SendGridDispatcher)(nil)
