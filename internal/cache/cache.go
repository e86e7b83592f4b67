// Package cache provides a small TTL-aware LRU used to avoid re-fetching
// repository listings within a single run.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an LRU whose entries expire after a per-entry TTL.
type Cache[V any] struct {
	lru *lru.Cache[string, *entry[V]]
}

// New creates a cache holding at most size entries.
func New[V any](size int) (*Cache[V], error) {
	l, err := lru.New[string, *entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lru: l}, nil
}

// Get returns the cached value for key if it exists and has not expired.
// An expired entry is removed so it stops occupying LRU capacity.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Len returns the number of resident entries, expired ones included.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Set stores val under key for the given TTL.
func (c *Cache[V]) Set(key string, val V, ttl time.Duration) {
	c.lru.Add(key, &entry[V]{
		value:     val,
		expiresAt: time.Now().Add(ttl),
	})
}
