// Package cache holds previously fetched per-event score records. The cache
// is advisory: callers own it, pass it explicitly, and invalidate it per
// selected weekend.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/pkg/metrics"
)

const defaultMaxSize = 512

// node is a single entry in the insertion-ordered linked list.
type node struct {
	eventID string
	records model.EventRecords
	next    *node
}

func (n *node) reset() {
	n.eventID = ""
	n.records = model.EventRecords{}
	n.next = nil
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries       int   `json:"entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

// Cache maps event ids to their fetched records.
// For bounded mode (maxSize > 0): linked list, newest at head, tail evicted first.
// For unbounded mode (maxSize <= 0): plain map.
type Cache struct {
	mu            sync.RWMutex
	entries       map[string]*node
	head          *node
	maxSize       int
	nodePool      sync.Pool
	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64
}

// New creates a cache with configuration options.
func New(opts ...Option) *Cache {
	c := &Cache{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[string]*node)
	c.nodePool = sync.Pool{
		New: func() any { return &node{} },
	}
	return c
}

// Get returns the cached records for an event.
func (c *Cache) Get(eventID string) (model.EventRecords, bool) {
	c.mu.RLock()
	n, ok := c.entries[eventID]
	var rec model.EventRecords
	if ok {
		rec = n.records
	}
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		metrics.RecordCacheHit()
		return rec, true
	}
	c.misses.Add(1)
	metrics.RecordCacheMiss()
	return model.EventRecords{}, false
}

// Put stores records under their event id, replacing any previous value.
func (c *Cache) Put(rec model.EventRecords) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := rec.Event.ID
	if n, exists := c.entries[id]; exists {
		n.records = rec
		return
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	n := c.nodePool.Get().(*node)
	n.eventID = id
	n.records = rec
	n.next = c.head
	c.head = n
	c.entries[id] = n
	metrics.UpdateCacheEntries(len(c.entries))
}

// InvalidateWeekend drops every cached event of the weekend and returns how
// many were removed.
func (c *Cache) InvalidateWeekend(weekendID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, n := range c.entries {
		if n.records.Event.WeekendID == weekendID {
			c.remove(id)
			removed++
		}
	}
	c.noteInvalidations(removed)
	return removed
}

// InvalidateEvent drops one event.
func (c *Cache) InvalidateEvent(eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[eventID]; !ok {
		return false
	}
	c.remove(eventID)
	c.noteInvalidations(1)
	return true
}

// Reset drops everything.
func (c *Cache) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	for _, n := range c.entries {
		n.reset()
		c.nodePool.Put(n)
	}
	clear(c.entries)
	c.head = nil
	c.noteInvalidations(removed)
	return removed
}

// Len returns the number of cached events.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns activity counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:       c.Len(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

// Must be called with c.mu held.
func (c *Cache) noteInvalidations(n int) {
	if n == 0 {
		return
	}
	c.invalidations.Add(int64(n))
	metrics.RecordCacheInvalidations(n)
	metrics.UpdateCacheEntries(len(c.entries))
}

// remove unlinks id. Must be called with c.mu held.
func (c *Cache) remove(id string) {
	target, ok := c.entries[id]
	if !ok {
		return
	}
	delete(c.entries, id)
	if c.head == target {
		c.head = target.next
	} else {
		cur := c.head
		for cur != nil && cur.next != target {
			cur = cur.next
		}
		if cur != nil {
			cur.next = target.next
		}
	}
	target.reset()
	c.nodePool.Put(target)
}

// evictOldest removes the tail of the list. Must be called with c.mu held.
func (c *Cache) evictOldest() {
	if c.head == nil {
		return
	}
	var prev *node
	cur := c.head
	for cur.next != nil {
		prev = cur
		cur = cur.next
	}
	delete(c.entries, cur.eventID)
	if prev == nil {
		c.head = nil
	} else {
		prev.next = nil
	}
	cur.reset()
	c.nodePool.Put(cur)
}
