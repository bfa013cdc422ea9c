package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem wraps a cached value with its expiry time.
type cacheItem[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// TTLCache is a bounded LRU cache whose entries also expire after a fixed TTL.
// It is safe for concurrent use.
type TTLCache[K comparable, V any] struct {
	lruCache *lru.Cache[K, cacheItem[V]]
	ttl      time.Duration
	now      func() time.Time
}

// NewTTLCache creates a cache holding at most size entries.
func NewTTLCache[K comparable, V any](size int, ttl time.Duration) (*TTLCache[K, V], error) {
	l, err := lru.New[K, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache[K, V]{lruCache: l, ttl: ttl, now: time.Now}, nil
}

// Set stores value under key, replacing any previous entry.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.lruCache.Add(key, cacheItem[V]{
		Data:      value,
		ExpiresAt: c.now().Add(c.ttl),
	})
}

// Get returns the cached value, or false if it is missing or expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	val, ok := c.lruCache.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return zero, false
	}
	return val.Data, true
}

// Delete drops key from the cache.
func (c *TTLCache[K, V]) Delete(key K) {
	c.lruCache.Remove(key)
}

func (c *TTLCache[K, V]) Len() int {
	return c.lruCache.Len()
}
