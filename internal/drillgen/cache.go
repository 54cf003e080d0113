package drillgen

import (
	"sync"
	"time"

	"github.com/abhisek/kotoba/internal/content"
)

// Cache holds generated drills by id until their TTL expires. It is safe
// for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	drill   content.Drill
	expires time.Time
}

// NewCache creates a Cache. A zero ttl never expires entries.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

// SetClock replaces the clock used for expiry.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the drill stored under id, dropping it if expired.
func (c *Cache) Get(id string) (content.Drill, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return content.Drill{}, false
	}
	if c.ttl > 0 && !c.now().Before(e.expires) {
		delete(c.entries, id)
		return content.Drill{}, false
	}
	return e.drill, true
}

// Set stores d under d.ID, replacing any previous entry.
func (c *Cache) Set(d content.Drill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[d.ID] = cacheEntry{drill: d, expires: c.now().Add(c.ttl)}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
