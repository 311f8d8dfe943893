package cache

import (
	"context"
	"sync"
	"time"
)

// Observer receives hit/miss notifications.
type Observer interface {
	CacheHit()
	CacheMiss()
}

type entry struct {
	val []byte
	exp time.Time
}

// MemoryCache is the in-process fallback used when no Redis address is configured.
type MemoryCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
	obs Observer
}

func NewMemoryCache(obs Observer) *MemoryCache {
	return &MemoryCache{m: make(map[string]entry), now: time.Now, obs: obs}
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	var exp time.Time
	if expiration > 0 {
		exp = c.now().Add(expiration)
	}
	buf := make([]byte, len(value))
	copy(buf, value)

	c.mu.Lock()
	c.m[key] = entry{val: buf, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || c.expired(e) {
		if ok {
			c.mu.Lock()
			if cur, still := c.m[key]; still && c.expired(cur) {
				delete(c.m, key)
			}
			c.mu.Unlock()
		}
		if c.obs != nil {
			c.obs.CacheMiss()
		}
		return nil, false, nil
	}
	if c.obs != nil {
		c.obs.CacheHit()
	}
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, true, nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.m, k)
	}
	c.mu.Unlock()
	return nil
}

// zero expiry never expires
func (c *MemoryCache) expired(e entry) bool {
	return !e.exp.IsZero() && !c.now().Before(e.exp)
}
