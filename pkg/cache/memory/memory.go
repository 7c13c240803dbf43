// Package memory is the in-process search cache tier.
package memory

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/eyesofazrael/azrael/pkg/models"
)

// Cache holds entries for the lifetime of the process. Items never expire
// on their own and no janitor runs; staleness is judged by the reader.
type Cache struct {
	items *gocache.Cache
}

// New returns an empty memory tier.
func New() *Cache {
	return &Cache{items: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns the entry stored under key.
func (c *Cache) Get(key string) (models.CacheEntry, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return models.CacheEntry{}, false
	}
	return v.(models.CacheEntry), true
}

// Put stores entry under its key.
func (c *Cache) Put(entry models.CacheEntry) {
	c.items.Set(entry.Key, entry, gocache.NoExpiration)
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.items.Flush()
}
