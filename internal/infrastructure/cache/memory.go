// Package cache provides the process-wide caches used by the verification
// engine: a bounded in-memory TTL cache for general results, a longer-lived
// one for landmark citations, and an optional Redis tier that lets multiple
// workers share verification results.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a bounded, TTL-evicting in-process cache.  It is a thin wrapper
// over hashicorp's expirable LRU, which is safe for concurrent use without
// additional locking.
type Memory[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewMemory constructs a Memory cache holding at most size entries, each
// expiring ttl after insertion.
func NewMemory[V any](size int, ttl time.Duration) *Memory[V] {
	if size <= 0 {
		size = 1024
	}
	return &Memory[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

// Get returns the cached value for key and whether it was present.
func (m *Memory[V]) Get(key string) (V, bool) {
	return m.lru.Get(key)
}

// Add stores value under key, replacing any existing entry.
func (m *Memory[V]) Add(key string, value V) {
	m.lru.Add(key, value)
}

// Remove evicts key if present.
func (m *Memory[V]) Remove(key string) {
	m.lru.Remove(key)
}

// Len returns the number of live entries.
func (m *Memory[V]) Len() int {
	return m.lru.Len()
}

// Purge drops every entry.  Used by tests and config hot-reload.
func (m *Memory[V]) Purge() {
	m.lru.Purge()
}
