// Package cache keeps last-known grid values in memory so repeated lookups in
// one session do not go back to the remote grid.
package cache

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache maps a key (a cell address or range) to its last-known value.
// Entries have no TTL: they change only through Put, or disappear on Reset.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]V
	// writes counts Puts per key so an in-flight load never clobbers a newer Put.
	writes map[string]uint64
	gen    uint64
	group  singleflight.Group

	hits   uint64
	misses uint64
}

// Stats reports cache hits and misses since creation.
type Stats struct {
	Hits   uint64
	Misses uint64
}

func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]V),
		writes:  make(map[string]uint64),
	}
}

// Get returns the cached value for key without loading.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// GetOrLoad returns the cached value for key, or runs loader and caches its
// result. Concurrent misses for the same key share a single loader call.
// A failed load caches nothing and the error is returned to every waiter.
func (c *Cache[V]) GetOrLoad(key string, loader func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return v, nil
	}
	c.misses++
	gen, writes := c.gen, c.writes[key]
	c.mu.Unlock()

	// The generation is part of the flight key so a load started against a
	// previous grid is never joined after Reset.
	res, err, _ := c.group.Do(flightKey(gen, key), func() (interface{}, error) {
		v, err := loader()
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen || c.writes[key] != writes {
			// Reset or Put happened meanwhile; the newer state wins.
			if cur, ok := c.entries[key]; ok {
				return cur, nil
			}
			return v, nil
		}
		c.entries[key] = v
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Put stores v under key unconditionally (write-through).
func (c *Cache[V]) Put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
	c.writes[key]++
}

// Delete drops key so the next GetOrLoad reloads it.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.writes[key]++
}

// Reset drops every entry. Loads already in flight finish but are not stored.
func (c *Cache[V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]V)
	c.writes = make(map[string]uint64)
	c.gen++
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses}
}

func flightKey(gen uint64, key string) string {
	return strconv.FormatUint(gen, 10) + "/" + key
}
