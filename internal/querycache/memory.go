package querycache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Memory is an in-process Backend holding at most maxEntries results.
type Memory struct {
	cache      *cache.Cache
	maxEntries int
}

// NewMemory creates a Memory backend. Expired entries are purged every
// cleanupInterval.
func NewMemory(maxEntries int, cleanupInterval time.Duration) *Memory {
	return &Memory{
		cache:      cache.New(cache.NoExpiration, cleanupInterval),
		maxEntries: maxEntries,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

// Set stores value unless the cache is full of live entries.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.cache.ItemCount() >= m.maxEntries {
		m.cache.DeleteExpired()
		if m.cache.ItemCount() >= m.maxEntries {
			return nil
		}
	}
	m.cache.Set(key, value, ttl)
	return nil
}

// Flush removes every entry.
func (m *Memory) Flush() {
	m.cache.Flush()
}
