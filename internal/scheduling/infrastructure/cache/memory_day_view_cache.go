package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryDayViewCache is a process-local DayViewCache for local mode and tests.
type MemoryDayViewCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryDayViewCache creates an in-memory cache. A non-positive ttl uses DefaultTTL.
func NewMemoryDayViewCache(ttl time.Duration) *MemoryDayViewCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryDayViewCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryDayViewCache) Get(_ context.Context, organizationID uuid.UUID, date time.Time) ([]byte, bool, error) {
	key := Key(organizationID, date)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(entry.payload))
	copy(out, entry.payload)
	return out, true, nil
}

func (c *MemoryDayViewCache) Set(_ context.Context, organizationID uuid.UUID, date time.Time, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	c.mu.Lock()
	c.entries[Key(organizationID, date)] = memoryEntry{payload: stored, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryDayViewCache) Invalidate(_ context.Context, organizationID uuid.UUID, dates ...time.Time) error {
	c.mu.Lock()
	for _, d := range dates {
		delete(c.entries, Key(organizationID, d))
	}
	c.mu.Unlock()
	return nil
}
