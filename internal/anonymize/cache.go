package anonymize

import (
	"sync"

	"github.com/Veraticus/scrub-db/internal/model"
)

type cacheKey struct {
	original string
	method   model.Method
}

// Cache remembers the substitute produced for each (method, original) pair so
// that repeated values map to the same substitute for the life of a session.
// It never evicts.
type Cache struct {
	entries map[cacheKey]string
	hits    int
	misses  int
	mu      sync.Mutex
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[cacheKey]string),
	}
}

// GetOrCreate returns the cached substitute for (method, original), calling
// generate and storing its result on the first request. The lock is held
// across generate so concurrent first sightings of one value agree.
func (c *Cache) GetOrCreate(method model.Method, original string, generate func() string) string {
	key := cacheKey{method: method, original: original}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		c.hits++
		return v
	}

	v := generate()
	c.entries[key] = v
	c.misses++
	return v
}

// Len returns the number of distinct substitutes stored.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
