package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// publishChannel is the subset of *amqp.Channel used for publishing.
type publishChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes domain events as persistent JSON messages on a topic
// exchange, routed by event type.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       publishChannel
	exchange string
	logger   *logrus.Logger
}

// Connect dials the broker, retrying up to retries times.
func Connect(url string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "messaging.Connect"
	var conn *amqp.Connection
	var err error
	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// NewAMQPPublisher opens a channel on conn and declares the durable topic exchange.
func NewAMQPPublisher(conn *amqp.Connection, exchange string, logger *logrus.Logger) (*AMQPPublisher, error) {
	const op = "messaging.NewAMQPPublisher"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p := newPublisher(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch publishChannel, exchange string, logger *logrus.Logger) *AMQPPublisher {
	if logger == nil {
		logger = logrus.New()
	}
	return &AMQPPublisher{ch: ch, exchange: exchange, logger: logger}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event ports.DomainEvent) error {
	const op = "messaging.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"exchange":   p.exchange,
	}).Debug("domain event published")
	return nil
}

// Close releases the channel and, when owned, the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Connection exposes the underlying broker connection for health probes.
func (p *AMQPPublisher) Connection() *amqp.Connection { return p.conn }

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct {
	logger *logrus.Logger
}

func NewNoopPublisher(logger *logrus.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (n *NoopPublisher) Publish(ctx context.Context, event ports.DomainEvent) error {
	if n.logger != nil {
		n.logger.WithField("event_type", event.Type).Debug("event publishing disabled, dropping event")
	}
	return nil
}

var (
	_ ports.EventPublisher = (*AMQPPublisher)(nil)
	_ ports.EventPublisher = (*NoopPublisher)(nil)
)
