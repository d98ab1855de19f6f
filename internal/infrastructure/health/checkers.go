package health

import (
	"context"
	"errors"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	infraDB "github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/db"
	"github.com/go-redis/redis/v8"
	"github.com/streadway/amqp"
)

// dbHealthChecker wraps the database for health checks.
type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

type amqpHealthChecker struct{ conn *amqp.Connection }

func (a *amqpHealthChecker) Name() string { return "amqp" }
func (a *amqpHealthChecker) Check(ctx context.Context) error {
	if a.conn == nil || a.conn.IsClosed() {
		return errors.New("amqp connection closed")
	}
	return nil
}

// NewDBHealthChecker creates a health checker for the database.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewAMQPHealthChecker reports the broker connection state.
func NewAMQPHealthChecker(conn *amqp.Connection) ports.HealthChecker {
	return &amqpHealthChecker{conn: conn}
}
