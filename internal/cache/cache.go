// internal/cache/cache.go
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache stores small byte payloads (robots.txt bodies) with a TTL.
type Cache interface {
	// Get returns the payload for key and whether it was present and unexpired.
	Get(key string) ([]byte, bool)

	// Set stores data under key for ttl, replacing any previous value.
	Set(key string, data []byte, ttl time.Duration)

	// Stats returns a snapshot of the cache counters.
	Stats() Stats

	// Close stops background maintenance.
	Close()
}

type entry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int
	SizeBytes int64
	MaxBytes  int64
	Hits      uint64
	Misses    uint64
}

// MemoryCache is an LRU cache bounded by total payload size.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List
	maxSize int64
	size    int64
	hits    uint64
	misses  uint64
	now     func() time.Time
	cancel  context.CancelFunc
}

// NewMemoryCache creates a cache holding at most maxSizeBytes of payload and starts
// a sweeper that drops expired entries every sweep interval (0 disables it).
func NewMemoryCache(maxSizeBytes int64, sweep time.Duration) *MemoryCache {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 4 * 1024 * 1024
	}

	ctx, cancel := context.WithCancel(context.Background())
	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSizeBytes,
		now:     time.Now,
		cancel:  cancel,
	}
	if sweep > 0 {
		go mc.sweep(ctx, sweep)
	}
	return mc
}

func (mc *MemoryCache) Get(key string) ([]byte, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	el, ok := mc.items[key]
	if !ok {
		mc.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if mc.now().After(e.expiresAt) {
		mc.removeElement(el)
		mc.misses++
		return nil, false
	}

	mc.lru.MoveToFront(el)
	mc.hits++
	return e.data, true
}

func (mc *MemoryCache) Set(key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	size := int64(len(data))

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if el, ok := mc.items[key]; ok {
		mc.removeElement(el)
	}
	if size > mc.maxSize {
		log.Debug().Str("key", key).Int64("size_bytes", size).Msg("Payload larger than cache, not stored")
		return
	}
	for mc.size+size > mc.maxSize && mc.lru.Len() > 0 {
		evicted := mc.lru.Back()
		log.Debug().Str("key", evicted.Value.(*entry).key).Msg("Evicted from cache (LRU)")
		mc.removeElement(evicted)
	}

	el := mc.lru.PushFront(&entry{key: key, data: data, expiresAt: mc.now().Add(ttl)})
	mc.items[key] = el
	mc.size += size
}

// Close stops the background sweeper
func (mc *MemoryCache) Close() {
	mc.cancel()
}

// Stats returns the current counters.
func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return Stats{
		Entries:   mc.lru.Len(),
		SizeBytes: mc.size,
		MaxBytes:  mc.maxSize,
		Hits:      mc.hits,
		Misses:    mc.misses,
	}
}

// removeElement must be called with mu held.
func (mc *MemoryCache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	mc.lru.Remove(el)
	delete(mc.items, e.key)
	mc.size -= int64(len(e.data))
}

func (mc *MemoryCache) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := mc.now()
			var next *list.Element
			for el := mc.lru.Front(); el != nil; el = next {
				next = el.Next()
				if now.After(el.Value.(*entry).expiresAt) {
					mc.removeElement(el)
				}
			}
			mc.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}
