package ports

// DomainError is the typed error contract shared by the application and
// infrastructure layers. Infrastructure inspects Code to pick a transport status
// without importing application-level implementations.
type DomainError interface {
	error
	Code() string
	Message() string
}

type domainError struct {
	code    string
	message string
}

func (e *domainError) Error() string   { return e.message }
func (e *domainError) Code() string    { return e.code }
func (e *domainError) Message() string { return e.message }

// NewDomainError constructs a DomainError. Callers compare with errors.Is against
// the sentinels below and wrap them with fmt.Errorf("%w: ...") to add context.
func NewDomainError(code, message string) DomainError {
	return &domainError{code: code, message: message}
}

const (
	CodeInvalidToken                  = "invalid_token"
	CodeTokenExpired                  = "token_expired"
	CodeInconsistentState             = "inconsistent_state"
	CodeCredentialIssuanceFailed      = "credential_issuance_failed"
	CodeEmailDispatchFailed           = "email_dispatch_failed"
	CodeDuplicateProviderSubscription = "duplicate_provider_subscription"
	CodePaymentGatewayError           = "payment_gateway_error"
	CodeNotFound                      = "not_found"
	CodeMissingEmail                  = "missing_email"
	CodeInvalidSubscription           = "invalid_subscription"
	CodeInvalidWebhook                = "invalid_webhook"
	CodeInvalidRefreshToken           = "invalid_refresh_token"
)

var (
	ErrInvalidToken                  = NewDomainError(CodeInvalidToken, "Invalid verification token.")
	ErrTokenExpired                  = NewDomainError(CodeTokenExpired, "Verification token has expired.")
	ErrInconsistentState             = NewDomainError(CodeInconsistentState, "No email was submitted for this verification token.")
	ErrCredentialIssuanceFailed      = NewDomainError(CodeCredentialIssuanceFailed, "Email verified but credentials could not be issued.")
	ErrEmailDispatchFailed           = NewDomainError(CodeEmailDispatchFailed, "Failed to send verification email. Please try again later.")
	ErrDuplicateProviderSubscription = NewDomainError(CodeDuplicateProviderSubscription, "A subscription with this provider id already exists.")
	ErrPaymentGateway                = NewDomainError(CodePaymentGatewayError, "Could not create a checkout session.")
	ErrNotFound                      = NewDomainError(CodeNotFound, "Resource not found.")
	ErrMissingEmail                  = NewDomainError(CodeMissingEmail, "User email is required to start a checkout.")
	ErrInvalidSubscription           = NewDomainError(CodeInvalidSubscription, "Subscription data is invalid.")
	ErrInvalidWebhook                = NewDomainError(CodeInvalidWebhook, "Webhook payload could not be verified.")
	ErrInvalidRefreshToken           = NewDomainError(CodeInvalidRefreshToken, "Invalid or revoked refresh token.")
)
