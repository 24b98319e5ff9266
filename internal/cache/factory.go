package cache

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/blobledger/indexer/config"
)

// NewCacheStore creates the Store selected by the cache engine.
func NewCacheStore(ctx context.Context, cacheConfig *config.CacheConfig) (Store, error) {
	switch cacheConfig.Engine {
	case config.InMemory:
		return NewMemoryStore(cacheConfig.TTL), nil
	case config.Redis:
		c := redis.NewClient(&redis.Options{
			Addr:     cacheConfig.Redis.Addr,
			Password: cacheConfig.Redis.Password,
			DB:       cacheConfig.Redis.DB,
		})
		return NewRedisStore(ctx, c,
			WithNamespace(cacheConfig.Redis.Namespace),
			WithOpTimeout(cacheConfig.Redis.OpTimeout),
		), nil
	default:
		return nil, ErrCacheUnknownType
	}
}
