package cache

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/factorchain/compliance-node/internal/config"
	"github.com/factorchain/compliance-node/internal/log"
	"github.com/factorchain/compliance-node/internal/redis"
)

// ForEver It can be cached forever
const ForEver = 0 * time.Second

// Cache interface propose an interface that any cache should adhere
type Cache interface {
	// Set sets a value in the cache accessible by the key. The ttl param is the maximum time to live in the cache
	// a ttl=0 means that the entry could be cached forever
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get searches for a non expired entry in the cache and returns the result in the value variable sent as reference and a found parameter. You should only trust the returned value if found is true
	Get(ctx context.Context, key string, value any) bool
	// Exists tells whether a key exists in the cache with a valid ttl
	Exists(ctx context.Context, key string) bool
	// Delete removes an entry from the cache.
	Delete(ctx context.Context, key string) error
	// Keys returns the number of entries currently held
	Keys(ctx context.Context) int
}

// NewCacheClient creates a new cache client based on the configuration
func NewCacheClient(ctx context.Context, cfg config.Configuration) (Cache, error) {
	switch cfg.Cache.Provider {
	case config.CacheProviderRedis:
		rdb, err := redis.Open(ctx, cfg.Cache.URL)
		if err != nil {
			log.Error(ctx, "cannot connect to redis", "err", err, "host", cfg.Cache.URL)
			return nil, err
		}
		return NewRedisCache(rdb), nil
	case config.CacheProviderValKey:
		client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{cfg.Cache.URL}})
		if err != nil {
			log.Error(ctx, "cannot connect to valkey", "err", err, "host", cfg.Cache.URL)
			return nil, err
		}
		return NewValKeyCache(client), nil
	case config.CacheProviderNone:
		// For deployments that pin everything remotely and want no local store.
		// The local fallback backend cannot work on top of this provider.
		return &NullCache{}, nil
	default:
		return NewMemoryCache(), nil
	}
}
