package radiosity

import "sync"

// Cache stores computed coupling matrices keyed by the scene's geometry
// content hash. It is advisory: absence or invalidation never changes
// results, only runtime cost. Implementations must be safe for
// concurrent use.
//
// The cache is injected into the engine explicitly rather than living in
// package state, and the key is derived from geometry content rather
// than a filename, so two different scenes can never alias an entry.
type Cache interface {
	Get(key string) (*CouplingMatrix, bool)
	Put(key string, m *CouplingMatrix)
}

// MemoryCache is an in-process Cache. Matrices are read-only after
// construction, so entries are shared rather than copied.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CouplingMatrix
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*CouplingMatrix)}
}

// Get returns the matrix cached under key, if any
func (c *MemoryCache) Get(key string) (*CouplingMatrix, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[key]
	return m, ok
}

// Put stores the matrix under key, replacing any previous entry
func (c *MemoryCache) Put(key string, m *CouplingMatrix) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = m
}

// Invalidate removes the entry for key, if present
func (c *MemoryCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached matrices
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
