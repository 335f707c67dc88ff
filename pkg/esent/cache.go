package esent

import (
	"container/list"
	"sync"
)

//pageCache keeps the most recently read pages. Pages are never modified after parsing so
//cached pages are handed out as is.
type pageCache struct {
	mu       sync.Mutex
	capacity int
	list     *list.List
	entries  map[uint32]*list.Element
	hits     uint64
	misses   uint64
}

type cacheEntry struct {
	number uint32
	page   *page
}

//CacheStats reports page cache effectiveness
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

func newPageCache(capacity int) *pageCache {
	return &pageCache{
		capacity: capacity,
		list:     list.New(),
		entries:  make(map[uint32]*list.Element),
	}
}

func (c *pageCache) get(n uint32) (*page, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[n]; ok {
		c.list.MoveToFront(elem)
		c.hits++
		return elem.Value.(*cacheEntry).page, true
	}
	c.misses++
	return nil, false
}

func (c *pageCache) put(p *page) {
	if c == nil || c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[p.number]; ok {
		elem.Value.(*cacheEntry).page = p
		c.list.MoveToFront(elem)
		return
	}
	c.entries[p.number] = c.list.PushFront(&cacheEntry{number: p.number, page: p})
	for c.list.Len() > c.capacity {
		last := c.list.Back()
		c.list.Remove(last)
		delete(c.entries, last.Value.(*cacheEntry).number)
	}
}

func (c *pageCache) stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Len: c.list.Len()}
}

func (c *pageCache) clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.Init()
	c.entries = make(map[uint32]*list.Element)
}
