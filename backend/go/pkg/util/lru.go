package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig configures an LRU cache.
type CacheConfig struct {
	// Capacity is the maximum number of entries. Must be positive.
	Capacity int
	// TTL is the lifetime of an entry. Zero means entries never expire.
	TTL time.Duration
}

// cacheEntry holds the data stored in a list element.
type cacheEntry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time
}

// LRUCache is a generic, thread-safe LRU cache with optional TTL expiry.
// Expired entries are evicted lazily on access.
type LRUCache[K comparable, V any] struct {
	config CacheConfig
	ll     *list.List
	items  map[K]*list.Element
	mu     sync.Mutex
}

// NewLRUCache creates an LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config CacheConfig) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", config.Capacity)
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		items:  make(map[K]*list.Element),
	}, nil
}

// Get returns the value stored under key, if present and not expired.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	entry := element.Value.(*cacheEntry[K, V])
	if c.config.TTL > 0 && time.Now().After(entry.expiration) {
		c.remove(element)
		var zero V
		return zero, false
	}

	c.ll.MoveToFront(element)
	return entry.value, true
}

// Put inserts or updates the value stored under key, refreshing its TTL.
// The least recently used entry is evicted when the cache is full.
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.items[key]; ok {
		entry := element.Value.(*cacheEntry[K, V])
		entry.value = value
		if c.config.TTL > 0 {
			entry.expiration = time.Now().Add(c.config.TTL)
		}
		c.ll.MoveToFront(element)
		return
	}

	entry := &cacheEntry[K, V]{key: key, value: value}
	if c.config.TTL > 0 {
		entry.expiration = time.Now().Add(c.config.TTL)
	}
	c.items[key] = c.ll.PushFront(entry)

	for c.ll.Len() > c.config.Capacity {
		if back := c.ll.Back(); back != nil {
			c.remove(back)
		}
	}
}

// Len returns the number of entries currently held, including any that
// have expired but not yet been touched.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// remove deletes an element from both the list and the index.
// Callers must hold the lock.
func (c *LRUCache[K, V]) remove(e *list.Element) {
	c.ll.Remove(e)
	entry := e.Value.(*cacheEntry[K, V])
	delete(c.items, entry.key)
}
