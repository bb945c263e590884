// Package ttlcache is an in-process key/value cache with per-kind expiry and a
// FIFO size bound. Failed lookups are never stored by callers.
package ttlcache

import (
	"container/list"
	"sync"
	"time"
)

const DefaultMaxEntries = 1000

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// Cache is safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	items map[string]*list.Element
	order *list.List // front = oldest insertion
}

type Option func(*options)

type options struct {
	maxEntries int
	now        func() time.Time
}

func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{maxEntries: DefaultMaxEntries, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[V]{
		ttl:        ttl,
		maxEntries: o.maxEntries,
		now:        o.now,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the cached value if it is younger than the TTL.
// An expired entry is removed on the spot.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	e := el.Value.(*entry[V])
	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.removeElement(el)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key. Overwriting refreshes the insertion time and
// moves the key to the back of the eviction queue. When the cache is full the
// single oldest insertion is evicted first.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}

	if c.order.Len() >= c.maxEntries {
		if oldest := c.order.Front(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	el := c.order.PushBack(&entry[V]{key: key, value: value, insertedAt: c.now()})
	c.items[key] = el
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every expired entry and reports how many were removed.
func (c *Cache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if now.Sub(el.Value.(*entry[V]).insertedAt) >= c.ttl {
			c.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

func (c *Cache[V]) TTL() time.Duration { return c.ttl }

func (c *Cache[V]) removeElement(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(c.items, e.key)
	c.order.Remove(el)
}
