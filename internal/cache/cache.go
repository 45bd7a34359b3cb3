// Package cache provides an in-memory cache for loaded CSV tables.
//
// Entries are keyed by file path and stamped with the file's modification
// time; a lookup with a newer mtime misses. Writers must invalidate
// explicitly after every write — invalidation is never implicit.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// FileCache caches one decoded table per file path.
type FileCache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[T any] struct {
	modTime time.Time
	data    T
}

// New creates an empty FileCache.
func New[T any]() *FileCache[T] {
	return &FileCache[T]{
		entries: make(map[string]entry[T]),
	}
}

// Get returns the cached table for path if it was stored with the same
// modification time. A stale entry is evicted and reported as a miss.
func (c *FileCache[T]) Get(path string, modTime time.Time) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[path]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if !e.modTime.Equal(modTime) {
		delete(c.entries, path)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.data, true
}

// Set stores the table decoded from path at the given modification time.
func (c *FileCache[T]) Set(path string, modTime time.Time, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = entry[T]{modTime: modTime, data: data}
}

// Invalidate drops the entry for path. Call after every write to the file.
func (c *FileCache[T]) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Size returns the current number of cached tables.
func (c *FileCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *FileCache[T]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
