package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlidingWindow counts events inside a rolling window using Redis sorted sets.
type SlidingWindow struct {
	Client redis.UniversalClient
	Prefix string
	Window time.Duration
	Max    int
	now    func() time.Time
}

// Allow registers an event for the given key and reports whether it is within the limit.
func (l SlidingWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	if l.now != nil {
		now = l.now()
	}
	until := now.Add(l.Window)
	if l.Client == nil || l.Max <= 0 || l.Window <= 0 {
		return Decision{Allowed: true, Limit: l.Max, Remaining: l.Max, Reset: until}, nil
	}

	redisKey := l.Prefix + key
	member := fmt.Sprintf("%d:%s", now.UnixNano(), uuid.NewString())
	cutoff := float64(now.Add(-l.Window).UnixNano())

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Limit: l.Max, Reset: until}, err
	}

	current := int(countCmd.Val())
	remaining := l.Max - current
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: current <= l.Max, Limit: l.Max, Remaining: remaining, Reset: until}, nil
}
