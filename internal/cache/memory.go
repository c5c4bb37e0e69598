package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a process-local SessionCache. Used when Redis is not
// configured, and in tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	session  Session
	deadline time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Lookup(_ context.Context, token string) (*Session, error) {
	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if time.Now().After(entry.deadline) {
		c.mu.Lock()
		delete(c.entries, token)
		c.mu.Unlock()
		return nil, ErrMiss
	}

	session := entry.session
	return &session, nil
}

func (c *MemoryCache) Store(_ context.Context, token string, session *Session, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic sweep keeps the map from growing unbounded between hits.
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.deadline) {
			delete(c.entries, key)
		}
	}

	c.entries[token] = memoryEntry{session: *session, deadline: now.Add(ttl)}
	return nil
}
