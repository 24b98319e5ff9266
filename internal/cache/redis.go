package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisOpTimeoutDefault = 2 * time.Second

// RedisStore lets indexer replicas share the transaction locations they have seen. All keys
// live below a namespace so that several deployments can use one Redis database.
type RedisStore struct {
	client    redis.UniversalClient
	ctx       context.Context
	namespace string
	opTimeout time.Duration
}

func WithNamespace(namespace string) func(*RedisStore) {
	return func(r *RedisStore) {
		r.namespace = namespace
	}
}

// WithOpTimeout bounds every round trip, a lookup on the indexing path must not stall a flush.
func WithOpTimeout(d time.Duration) func(*RedisStore) {
	return func(r *RedisStore) {
		r.opTimeout = d
	}
}

func NewRedisStore(ctx context.Context, c redis.UniversalClient, opts ...func(*RedisStore)) *RedisStore {
	r := &RedisStore{
		client:    c,
		ctx:       ctx,
		opTimeout: redisOpTimeoutDefault,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *RedisStore) Get(key string) ([]byte, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	result, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrCacheFailedToGet, err)
	}

	return result, nil
}

func (r *RedisStore) Set(key string, value []byte, ttl time.Duration) error {
	return r.SetMany(map[string][]byte{key: value}, ttl)
}

// SetMany writes all values in one MULTI/EXEC round trip, either every key is stored or none.
func (r *RedisStore) SetMany(values map[string][]byte, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}

	ctx, cancel := r.opContext()
	defer cancel()

	pipe := r.client.TxPipeline()
	for key, value := range values {
		pipe.Set(ctx, r.key(key), value, ttl)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return errors.Join(ErrCacheFailedToSet, err)
	}

	return nil
}

func (r *RedisStore) Del(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = r.key(key)
	}

	ctx, cancel := r.opContext()
	defer cancel()

	err := r.client.Del(ctx, namespaced...).Err()
	if err != nil {
		return errors.Join(ErrCacheFailedToDel, err)
	}

	return nil
}

func (r *RedisStore) key(key string) string {
	return r.namespace + key
}

func (r *RedisStore) opContext() (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return context.WithCancel(r.ctx)
	}
	return context.WithTimeout(r.ctx, r.opTimeout)
}
