// Package redislock implements OrderLocker with a Redis key per order.
package redislock

import (
	"context"
	"fmt"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL    = 30 * time.Second
	DefaultPrefix = "labtrack:order-lock"
)

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClient connects to the server described by a redis:// URL.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Locker holds an expiring key per order. The TTL bounds how long a crashed
// holder can block others.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewLocker(client redis.UniversalClient, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{
		client: client,
		ttl:    ttl,
		prefix: DefaultPrefix,
	}
}

// Lock returns a Conflict error when another holder owns the order.
func (l *Locker) Lock(ctx context.Context, orderID kernel.UUID) (ports.ReleaseFunc, error) {
	key := l.key(orderID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock for order %s: %w", orderID, err)
	}
	if !acquired {
		return nil, errs.NewConflictError(fmt.Sprintf("order %s is being modified by another request", orderID))
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release lock for order %s: %w", orderID, err)
		}
		return nil
	}, nil
}

func (l *Locker) key(orderID kernel.UUID) string {
	return l.prefix + ":" + orderID.String()
}

// NoopLocker never blocks. It is used when Redis is not configured and a single
// instance relies on row locks alone.
type NoopLocker struct{}

func (NoopLocker) Lock(_ context.Context, _ kernel.UUID) (ports.ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}
