package pipeline

import (
	"container/list"
	"sync"
)

// Cache holds recently compiled documents keyed by content hash, evicting
// the least recently used beyond its capacity.
type Cache struct {
	mu    sync.Mutex
	cap   int
	order *list.List // front is most recent
	items map[string]*list.Element

	hits, misses int64
}

// NewCache returns a cache for up to capacity documents. A capacity of 0
// disables caching.
func NewCache(capacity int) *Cache {
	return &Cache{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// Get returns the document with the given hash.
func (c *Cache) Get(hash string) (*Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[hash]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*Document), true
}

// Add stores doc, replacing any document with the same hash.
func (c *Cache) Add(doc *Document) {
	if c.cap <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[doc.Hash]; ok {
		el.Value = doc
		c.order.MoveToFront(el)
		return
	}
	c.items[doc.Hash] = c.order.PushFront(doc)
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*Document).Hash)
	}
}

// Documents returns the cached documents, most recent first.
func (c *Cache) Documents() []*Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Document, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Document))
	}
	return out
}

// CacheStats reports cache usage.
type CacheStats struct {
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Size: c.order.Len(), Capacity: c.cap, Hits: c.hits, Misses: c.misses}
}
