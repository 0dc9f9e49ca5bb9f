package summarycache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/doc-summarizer/internal/domain/summarizer"
)

type cachedSummary struct {
	payload   summarizer.Response
	expiresAt time.Time
}

// MemoryCache is an in-process summary cache for tests/dev.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cachedSummary
	now     func() time.Time
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cachedSummary),
		now:     time.Now,
	}
}

// Get implements summarizer.Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (summarizer.Response, bool, error) {
	if key == "" {
		return summarizer.Response{}, false, nil
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return summarizer.Response{}, false, nil
	}
	if c.hasExpired(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return summarizer.Response{}, false, nil
	}
	resp := entry.payload
	resp.Keywords = append([]string(nil), resp.Keywords...)
	return resp, true, nil
}

// Set stores resp with an optional TTL; ttl <= 0 keeps it until restart.
func (c *MemoryCache) Set(_ context.Context, key string, resp summarizer.Response, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	exp := time.Time{}
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	resp.Keywords = append([]string(nil), resp.Keywords...)
	c.mu.Lock()
	c.entries[key] = cachedSummary{payload: resp, expiresAt: exp}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(c.now())
}

var _ summarizer.Cache = (*MemoryCache)(nil)
