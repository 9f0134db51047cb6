package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "brandsite:revalidated:" // brandsite:revalidated:{tracker key}
	defaultTTL = 30 * 24 * time.Hour
)

// Redis keeps fingerprints in Redis so every API instance and the worker
// agree on what has been published.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis tracker. A non-positive ttl selects the default.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Last(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read fingerprint: %w", err)
	}
	return v, nil
}

func (r *Redis) Advance(ctx context.Context, key, fingerprint string) error {
	if err := r.client.Set(ctx, keyPrefix+key, fingerprint, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store fingerprint: %w", err)
	}
	return nil
}
