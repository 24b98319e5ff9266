package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"

	"github.com/blobledger/indexer/config"
	"github.com/blobledger/indexer/internal/cache"
	testutils "github.com/blobledger/indexer/internal/test_utils"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// given
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, addr, err := testutils.RunRedis(pool, "6380")
	require.NoError(t, err)
	defer func() {
		_ = pool.Purge(resource)
	}()

	ctx := context.Background()
	sut, err := cache.NewCacheStore(ctx, &config.CacheConfig{
		Engine: config.Redis,
		Redis:  &config.RedisConfig{Addr: addr, Namespace: "indexer:", OpTimeout: time.Second},
	})
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	err = testutils.Retry(func() error {
		return sut.Set("ping", []byte("pong"), time.Second)
	})
	require.NoError(t, err)

	key := "example"
	value := []byte("hello world")

	// when
	err = sut.Set(key, value, 200*time.Millisecond)
	require.NoError(t, err)

	// then
	retrieved, err := sut.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, retrieved)

	// when
	time.Sleep(300 * time.Millisecond)

	// then
	retrieved, err = sut.Get(key)
	require.ErrorIs(t, err, cache.ErrCacheNotFound)
	require.Nil(t, retrieved)

	// when
	require.NoError(t, sut.Set(key, value, time.Minute))
	err = sut.Del(key, "nonexistent")

	// then
	require.NoError(t, err)
	_, err = sut.Get(key)
	require.ErrorIs(t, err, cache.ErrCacheNotFound)

	// when
	err = sut.SetMany(map[string][]byte{"dp:tx-1": []byte("dp-0"), "lane:tx-1": []byte("lane-1")}, time.Minute)

	// then
	require.NoError(t, err)
	retrieved, err = sut.Get("lane:tx-1")
	require.NoError(t, err)
	require.Equal(t, []byte("lane-1"), retrieved)

	// keys are written below the namespace
	raw, err := client.Get(ctx, "indexer:dp:tx-1").Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte("dp-0"), raw)
	require.ErrorIs(t, client.Get(ctx, "dp:tx-1").Err(), redis.Nil)
}
