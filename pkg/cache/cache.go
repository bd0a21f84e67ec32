// Package cache provides a thread-safe LRU cache keyed by expression source.
//
// The runtime stores compiled expressions here so that evaluating the same
// text repeatedly, as the REPL and batch callers do, skips the lexer,
// parser and partitioner.
//
//	c := cache.New[*Expression](128)
//	expr, err := c.GetOrCompile("p & q", compile)
package cache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 128

type entry[V any] struct {
	key   string
	value V
}

// Cache is an LRU cache. Once the capacity is reached, the least recently
// accessed entry is evicted. Safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// New creates a cache holding at most capacity entries.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the value stored under key and marks it most recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry[V]).value, true
}

// Set inserts or replaces the value under key, evicting the least recently
// used entry when full.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[V]).value = value
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}
	c.items[key] = c.ll.PushFront(&entry[V]{key: key, value: value})
}

// GetOrCompile returns the cached value for key, or calls compile and caches
// its result. Errors are not cached.
func (c *Cache[V]) GetOrCompile(key string, compile func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compile()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Len returns the number of entries currently cached.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evictLocked removes the least recently used entry. c.mu must be held.
func (c *Cache[V]) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
