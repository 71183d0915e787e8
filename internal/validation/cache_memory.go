package validation

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the in-process Cache used by tests and by deployments
// without Redis. Entries expire passively: an expired entry is treated as
// absent on read and overwritten lazily. The clock is injectable so expiry
// tests do not sleep.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	sets    map[string]map[string]struct{}
	now     func() time.Time
}

type memoryEntry struct {
	val       []byte
	expiresAt time.Time
}

type MemoryCacheOption func(*MemoryCache)

// WithClock overrides the cache's time source.
func WithClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		sets:    make(map[string]map[string]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.val, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		val:       append([]byte(nil), val...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) IsMember(_ context.Context, set, member string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	members, ok := c.sets[set]
	if !ok {
		return false, nil
	}
	_, ok = members[member]
	return ok, nil
}

func (c *MemoryCache) AddMembers(_ context.Context, set string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sets[set] == nil {
		c.sets[set] = make(map[string]struct{}, len(members))
	}
	for _, m := range members {
		c.sets[set][m] = struct{}{}
	}
	return nil
}
