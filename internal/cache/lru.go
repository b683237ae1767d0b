package cache

import (
	"sync"
	"sync/atomic"

	"github.com/tazuo/autoloot/internal/domain"
)

type node[V any] struct {
	key   string
	value V
	prev  *node[V]
	next  *node[V]
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Size     int     `json:"size"`
	MaxSize  int     `json:"max_size"`
	HitRatio float64 `json:"hit_ratio"`
}

// LRU is a string-keyed cache with least-recently-used eviction. It backs
// the matcher's normalization of tooltip text, which repeats across items.
type LRU[V any] struct {
	maxSize int
	size    int

	head *node[V]
	tail *node[V]

	entries map[string]*node[V]
	mutex   sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLRU creates a cache holding at most maxSize entries.
func NewLRU[V any](maxSize int) *LRU[V] {
	if maxSize <= 0 {
		maxSize = 4096
	}

	head := &node[V]{}
	tail := &node[V]{}
	head.next = tail
	tail.prev = head

	return &LRU[V]{
		maxSize: maxSize,
		head:    head,
		tail:    tail,
		entries: make(map[string]*node[V]),
	}
}

// Get returns the cached value and marks it most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	c.hits.Add(1)
	return n.value, true
}

// Set adds or replaces key, evicting the oldest entry when full.
func (c *LRU[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, ok := c.entries[key]; ok {
		n.value = value
		c.moveToFront(n)
		return
	}

	n := &node[V]{key: key, value: value}
	c.addToFront(n)
	c.entries[key] = n
	c.size++

	if c.size > c.maxSize {
		c.evictLRU()
	}
}

// GetOrCompute returns the cached value for key, computing and storing it
// on a miss.
func (c *LRU[V]) GetOrCompute(key string, compute func(string) V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute(key)
	c.Set(key, v)
	return v
}

// Clear drops every entry and resets the counters.
func (c *LRU[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.entries = make(map[string]*node[V])
	c.size = 0
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *LRU[V]) Stats() Stats {
	c.mutex.Lock()
	size := c.size
	c.mutex.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: misses, Size: size, MaxSize: c.maxSize, HitRatio: ratio}
}

// HealthCheck reports degraded when the hit ratio is poor under load,
// which usually means the cache is sized too small for the item volume.
func (c *LRU[V]) HealthCheck() domain.HealthStatus {
	stats := c.Stats()
	status := domain.HealthStatus{
		Status:  domain.HealthStatusHealthy,
		Message: "Cache is operating normally",
		Details: map[string]any{
			"size":      stats.Size,
			"max_size":  stats.MaxSize,
			"hit_ratio": stats.HitRatio,
		},
	}
	if stats.HitRatio < 0.5 && stats.Hits+stats.Misses > 1000 && stats.Size >= stats.MaxSize {
		status.Status = domain.HealthStatusDegraded
		status.Message = "Low cache hit ratio at capacity"
	}
	return status
}

func (c *LRU[V]) moveToFront(n *node[V]) {
	c.removeNode(n)
	c.addToFront(n)
}

func (c *LRU[V]) addToFront(n *node[V]) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRU[V]) removeNode(n *node[V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRU[V]) evictLRU() {
	if c.tail.prev == c.head {
		return
	}
	lru := c.tail.prev
	c.removeNode(lru)
	delete(c.entries, lru.key)
	c.size--
}
