package services

import (
	"context"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// publishEvent sends a domain event without failing the calling operation.
func publishEvent(ctx context.Context, publisher ports.EventPublisher, logger *logrus.Logger, eventType string, at time.Time, payload any) {
	if publisher == nil {
		return
	}
	err := publisher.Publish(ctx, ports.DomainEvent{Type: eventType, OccurredAt: at, Payload: payload})
	if err != nil && logger != nil {
		logger.WithField("event_type", eventType).WithError(err).Warn("failed to publish domain event")
	}
}
