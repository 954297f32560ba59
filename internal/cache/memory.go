package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the in-process MemberCache used when no Redis is
// configured. Entries are encoded so callers never share mutable state.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(ctx context.Context, memberID string, dst any) (bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[memberKey(memberID)]
	if ok && !c.now().Before(entry.expiresAt) {
		delete(c.entries, memberKey(memberID))
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(entry.data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached member %s: %w", memberID, err)
	}
	return true, nil
}

func (c *MemoryCache) Set(ctx context.Context, memberID string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode member %s: %w", memberID, err)
	}

	c.mu.Lock()
	c.entries[memberKey(memberID)] = memoryEntry{data: data, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, memberIDs ...string) error {
	c.mu.Lock()
	for _, id := range memberIDs {
		delete(c.entries, memberKey(id))
	}
	c.mu.Unlock()
	return nil
}
