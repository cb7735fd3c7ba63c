// Package cache holds recently fetched ad platform data in memory.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultSize = 512

// Cache is a size-bounded TTL cache keyed by string. It is safe for
// concurrent use.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

// New creates a cache holding up to size entries for ttl each.
// A non-positive size uses a default; a non-positive ttl disables expiry.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = defaultSize
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Set stores value under key.
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Invalidate removes every key starting with prefix and returns how many
// entries were dropped.
func (c *Cache[V]) Invalidate(prefix string) int {
	n := 0
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) && c.lru.Remove(k) {
			n++
		}
	}
	return n
}

// Purge empties the cache.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Key joins parts with ':' into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
