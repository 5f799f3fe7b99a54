package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowAllow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Unix(1_700_000_000, 0)
	limiter := SlidingWindow{Client: client, Prefix: "test:", Window: 2 * time.Second, Max: 2, now: func() time.Time { return now }}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		require.True(t, decision.Allowed, "request %d", i)
		require.Equal(t, 2-(i+1), decision.Remaining)
	}

	decision, err := limiter.Allow(ctx, "key")
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Zero(t, decision.Remaining)

	now = now.Add(3 * time.Second)
	decision, err = limiter.Allow(ctx, "key")
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestSlidingWindowWithoutClientAllows(t *testing.T) {
	decision, err := SlidingWindow{Window: time.Second, Max: 1}.Allow(context.Background(), "key")
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}
