package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryConfig configures an InMemoryCache.
type MemoryConfig struct {
	TTL        time.Duration // 0 keeps entries until evicted
	MaxEntries int           // 0 means unbounded
}

// Stats reports memo effectiveness since creation or the last Clear.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type memoEntry struct {
	key      string
	value    string
	storedAt time.Time
}

// InMemoryCache is a process-local memo with optional TTL and a
// least-recently-used bound on the number of entries.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	ttl     time.Duration
	max     int
	now     func() time.Time
	stats   Stats
}

// NewInMemoryCache creates an unbounded memo whose entries expire after
// ttlSeconds. If ttlSeconds is 0 or negative, entries never expire.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return NewMemoryCache(MemoryConfig{TTL: ttl})
}

// NewMemoryCache creates a memo from cfg.
func NewMemoryCache(cfg MemoryConfig) *InMemoryCache {
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if cfg.MaxEntries < 0 {
		cfg.MaxEntries = 0
	}
	return &InMemoryCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		ttl:     cfg.TTL,
		max:     cfg.MaxEntries,
		now:     time.Now,
	}
}

// Get returns the memoized translation for key. Expired entries are removed
// on read.
func (c *InMemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return "", false
	}

	entry := el.Value.(*memoEntry)
	if c.expired(entry, c.now()) {
		c.remove(el)
		c.stats.Misses++
		return "", false
	}

	c.order.MoveToFront(el)
	c.stats.Hits++
	return entry.value, true
}

// Set stores value under key, evicting the least recently used entry when
// the memo is full.
func (c *InMemoryCache) Set(_ context.Context, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*memoEntry)
		entry.value = value
		entry.storedAt = now
		c.order.MoveToFront(el)
		return nil
	}

	c.entries[key] = c.order.PushFront(&memoEntry{key: key, value: value, storedAt: now})

	for c.max > 0 && c.order.Len() > c.max {
		c.remove(c.order.Back())
		c.stats.Evictions++
	}
	return nil
}

// Len returns the number of entries, expired ones included until they are
// read or exported.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the memo counters.
func (c *InMemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.order.Len()
	return s
}

// Clear removes all entries and resets the counters.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.stats = Stats{}
}

// Entries returns all live entries and drops the expired ones.
func (c *InMemoryCache) Entries(_ context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	result := make(map[string]string, c.order.Len())
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*memoEntry)
		if c.expired(entry, now) {
			c.remove(el)
		} else {
			result[entry.key] = entry.value
		}
		el = next
	}
	return result, nil
}

func (c *InMemoryCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*memoEntry).key)
}

func (c *InMemoryCache) expired(entry *memoEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(entry.storedAt) > c.ttl
}

var _ EnumerableCache = (*InMemoryCache)(nil)
