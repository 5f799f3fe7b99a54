package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter decides whether the event identified by key is within its budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// FixedWindow adapts a ulule limiter to Limiter.
type FixedWindow struct {
	limiter *limiter.Limiter
}

// NewFixedWindow builds a fixed-window limiter allowing max events per period
// on the given store.
func NewFixedWindow(store limiter.Store, period time.Duration, max int64) *FixedWindow {
	return &FixedWindow{limiter: limiter.New(store, limiter.Rate{Period: period, Limit: max})}
}

// NewMemoryStore returns an in-process limiter store.
func NewMemoryStore(prefix string) limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute})
}

// NewRedisStore returns a limiter store shared across instances through Redis.
func NewRedisStore(client *redis.Client, prefix string) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
}

// Allow implements Limiter.
func (f *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	lc, err := f.limiter.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lc.Reached,
		Limit:     int(lc.Limit),
		Remaining: int(lc.Remaining),
		Reset:     time.Unix(lc.Reset, 0),
	}, nil
}
