package badger

import (
	"container/list"
	"sync"

	"github.com/recallhq/recall/pkg/memory"
)

// recordCache is the L1 LRU in front of Badger for hot records.
type recordCache struct {
	mu       sync.Mutex
	maxSize  int
	items    map[string]*list.Element
	eviction *list.List
	hits     int64
	misses   int64
}

type cacheItem struct {
	key    string
	record *memory.Record
}

func newRecordCache(maxSize int) *recordCache {
	return &recordCache{
		maxSize:  maxSize,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

func (c *recordCache) get(key string) (*memory.Record, bool) {
	if c.maxSize <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		c.hits++
		return elem.Value.(*cacheItem).record.Clone(), true
	}
	c.misses++
	return nil, false
}

func (c *recordCache) put(key string, r *memory.Record) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		elem.Value.(*cacheItem).record = r.Clone()
		return
	}
	if c.eviction.Len() >= c.maxSize {
		if back := c.eviction.Back(); back != nil {
			c.eviction.Remove(back)
			delete(c.items, back.Value.(*cacheItem).key)
		}
	}
	c.items[key] = c.eviction.PushFront(&cacheItem{key: key, record: r.Clone()})
}

func (c *recordCache) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.eviction.Remove(elem)
		delete(c.items, key)
	}
}

func (c *recordCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// hitRate returns the hit ratio (0.0-1.0) and total lookups.
func (c *recordCache) hitRate() (float64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0, 0
	}
	return float64(c.hits) / float64(total), total
}
