package lesson

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	bundle    *Bundle
	expiresAt time.Time
}

// Cache memoises bundles and the lesson list for a fixed TTL. Returned
// bundles are shared and must be treated as read-only.
type Cache struct {
	next Loader
	ttl  time.Duration
	now  func() time.Time

	mu          sync.Mutex
	bundles     map[string]cacheEntry
	list        []Summary
	listExpires time.Time
}

func NewCache(next Loader, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		bundles: make(map[string]cacheEntry),
	}
}

func (c *Cache) Load(ctx context.Context, slug string) (*Bundle, error) {
	c.mu.Lock()
	e, ok := c.bundles[slug]
	c.mu.Unlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.bundle, nil
	}

	b, err := c.next.Load(ctx, slug)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.bundles[slug] = cacheEntry{bundle: b, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return b, nil
}

func (c *Cache) List(ctx context.Context) ([]Summary, error) {
	c.mu.Lock()
	list, expires := c.list, c.listExpires
	c.mu.Unlock()
	if list != nil && c.now().Before(expires) {
		return list, nil
	}

	list, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Summary{}
	}

	c.mu.Lock()
	c.list, c.listExpires = list, c.now().Add(c.ttl)
	c.mu.Unlock()
	return list, nil
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundles = make(map[string]cacheEntry)
	c.list = nil
}
