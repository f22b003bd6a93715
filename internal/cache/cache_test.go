package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb), mr
}

func TestSetForEverPersists(t *testing.T) {
	ctx := context.Background()
	redisCache, _ := newTestRedisCache(t)
	caches := map[string]Cache{
		"memory": NewMemoryCache(),
		"redis":  redisCache,
	}
	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			payload := []byte("pinned manifest bytes")
			require.NoError(t, c.Set(ctx, "doc", payload, ForEver))

			var got []byte
			require.True(t, c.Get(ctx, "doc", &got))
			assert.Equal(t, payload, got)
			assert.True(t, c.Exists(ctx, "doc"))
			assert.Equal(t, 1, c.Keys(ctx))
		})
	}
}

func TestRedisForEverEntryHasNoExpiration(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, c.Set(ctx, "doc", []byte("content"), ForEver))

	assert.True(t, mr.Exists("doc"))
	assert.Zero(t, mr.TTL("doc"))
}

func TestRedisBoundedEntryExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, c.Set(ctx, "session", []byte("token"), time.Minute))
	require.True(t, c.Exists(ctx, "session"))

	mr.FastForward(2 * time.Minute)

	var got []byte
	assert.False(t, c.Get(ctx, "session", &got))
}

func TestRedisDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisCache(t)

	require.NoError(t, c.Set(ctx, "doc", []byte("content"), ForEver))
	require.NoError(t, c.Delete(ctx, "doc"))
	assert.False(t, c.Exists(ctx, "doc"))
	assert.Equal(t, 0, c.Keys(ctx))
}
