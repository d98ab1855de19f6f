package ports

import (
	"context"
)

// EmailDispatcher delivers a single HTML message. It reports success as a
// boolean; provider errors are logged by the implementation.
type EmailDispatcher interface {
	Send(ctx context.Context, to, subject, htmlBody string) bool
}
