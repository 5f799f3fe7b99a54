package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pricing/internal/resilience"
)

// JSON wraps Redis helpers for JSON payloads. A nil client turns every call
// into a miss so callers need no special casing when Redis is disabled.
type JSON struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewJSON constructs a JSON cache helper.
func NewJSON(client redis.UniversalClient, ttl time.Duration) *JSON {
	return &JSON{client: client, ttl: ttl}
}

// WithBreaker routes every Redis call through b. While b is open reads
// miss and writes are dropped.
func (c *JSON) WithBreaker(b *resilience.Breaker) *JSON {
	c.breaker = b
	return c
}

// Enabled reports whether a Redis client is configured.
func (c *JSON) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *JSON) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() || key == "" {
		return false, nil
	}
	var data []byte
	err := c.guard(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, resilience.ErrOpenCircuit) {
			return false, nil
		}
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set serialises v as JSON and stores it with the configured TTL.
func (c *JSON) Set(ctx context.Context, key string, v any) error {
	if !c.Enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = c.guard(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return nil
	}
	return err
}

func (c *JSON) guard(ctx context.Context, fn func(context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Do(ctx, fn)
}
