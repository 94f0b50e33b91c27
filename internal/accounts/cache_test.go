package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisCache(client)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "accounts:dashboard")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, "accounts:dashboard", []byte(`{"total_pending":"0"}`), time.Minute))

	val, ok, err := cache.Get(ctx, "accounts:dashboard")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"total_pending":"0"}`, string(val))

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "accounts:dashboard")
	require.NoError(t, err)
	require.False(t, ok)
}
