package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Options configures a Cache.
type Options struct {
	// TTL applies to entries stored through Get's loader path.
	// Set accepts an explicit per-entry TTL instead.
	TTL        time.Duration
	MaxEntries int
}

// MetricsHooks lets callers observe cache behavior without this
// package depending on a metrics backend.
type MetricsHooks struct {
	OnHit   func(key string)
	OnMiss  func(key string)
	OnStore func(key string)
	OnEvict func(key string)
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is an in-memory TTL key/value store. Concurrent loads for the
// same key are collapsed through singleflight.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]*entry
	order   []string
	opts    Options
	metrics MetricsHooks
	sf      singleflight.Group
}

func New(opts Options, hooks MetricsHooks) *Cache {
	return &Cache{
		items:   make(map[string]*entry),
		order:   make([]string, 0, 64),
		opts:    opts,
		metrics: hooks,
	}
}

// Loader produces a value for a missing key. ok=false means the load
// produced nothing cacheable and err (possibly nil) is returned as-is.
type Loader func(ctx context.Context, key string) (interface{}, bool, error)

type loadResult struct {
	val interface{}
	ok  bool
	err error
}

// Get returns the cached value for key, loading it through loader on a
// miss. Expired entries are dropped before loading.
func (c *Cache) Get(ctx context.Context, key string, loader Loader) (interface{}, bool, error) {
	now := time.Now()
	c.mu.RLock()
	if e, ok := c.items[key]; ok && now.Before(e.expiresAt) {
		val := e.value
		c.mu.RUnlock()
		if c.metrics.OnHit != nil {
			c.metrics.OnHit(key)
		}
		return val, true, nil
	}
	c.mu.RUnlock()

	if c.metrics.OnMiss != nil {
		c.metrics.OnMiss(key)
	}
	result, _, _ := c.sf.Do(key, func() (interface{}, error) {
		val, ok, err := loader(ctx, key)
		if ok {
			c.Set(key, val, c.opts.TTL)
		}
		return loadResult{val: val, ok: ok, err: err}, nil
	})
	res := result.(loadResult)
	if !res.ok {
		return nil, false, res.err
	}
	return res.val, true, nil
}

// Set stores val under key for ttl. A non-positive ttl falls back to
// the cache-wide default.
func (c *Cache) Set(key string, val interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.opts.TTL
	}
	now := time.Now()
	e := &entry{value: val, expiresAt: now.Add(ttl)}
	c.mu.Lock()
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = e
	c.evictIfNeeded()
	c.mu.Unlock()
	if c.metrics.OnStore != nil {
		c.metrics.OnStore(key)
	}
}

// Peek returns a cached value without triggering a load.
func (c *Cache) Peek(key string) (interface{}, bool) {
	now := time.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || now.After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.removeFromOrder(key)
	c.mu.Unlock()
}

// Len counts entries that have not yet expired.
func (c *Cache) Len() int {
	now := time.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.items {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// PurgeExpired removes entries past their TTL and reports how many
// were dropped. Intended to be called from a janitor loop.
func (c *Cache) PurgeExpired() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
			c.removeFromOrder(key)
			dropped++
			if c.metrics.OnEvict != nil {
				c.metrics.OnEvict(key)
			}
		}
	}
	return dropped
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// FIFO eviction, oldest insertion first.
func (c *Cache) evictIfNeeded() {
	if c.opts.MaxEntries <= 0 || len(c.items) <= c.opts.MaxEntries {
		return
	}
	excess := len(c.items) - c.opts.MaxEntries
	for excess > 0 && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.items, victim)
		excess--
		if c.metrics.OnEvict != nil {
			c.metrics.OnEvict(victim)
		}
	}
}
