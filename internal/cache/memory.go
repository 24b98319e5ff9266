package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupIntervalDefault = time.Minute

// MemoryStore keeps values in process memory, expired entries are evicted periodically.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(defaultTTL, cleanupIntervalDefault),
	}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	value, found := s.cache.Get(key)
	if !found {
		return nil, ErrCacheNotFound
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil, ErrCacheFailedToGet
	}

	return bytes, nil
}

// Set stores the value, a zero ttl falls back to the default ttl of the store.
func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}

	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) SetMany(values map[string][]byte, ttl time.Duration) error {
	for key, value := range values {
		_ = s.Set(key, value, ttl)
	}
	return nil
}

func (s *MemoryStore) Del(keys ...string) error {
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return nil
}
