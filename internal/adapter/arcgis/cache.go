package arcgis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
)

// CachedFetcher wraps an OutageFetcher with a TTL-bounded in-memory LRU
// keyed by the trimmed county exactly as the upstream receives it, so
// differently cased names never share an entry. Failed fetches are never
// cached.
type CachedFetcher struct {
	inner   domain.OutageFetcher
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner domain.OutageFetcher, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedFetcher) FetchOpenOutages(ctx context.Context, county string) ([]domain.RawOutageRecord, error) {
	county = strings.TrimSpace(county)
	now := c.clock.Now()
	if records, ok := c.cache.get(county, now); ok {
		c.metrics.UpstreamCache.WithLabelValues("hit").Inc()
		return records, nil
	}
	c.metrics.UpstreamCache.WithLabelValues("miss").Inc()

	records, err := c.inner.FetchOpenOutages(ctx, county)
	if err != nil {
		return nil, err
	}
	c.cache.put(county, records, now.Add(c.ttl))
	return cloneRecords(records), nil
}

// lruCache is a thread-safe LRU of record slices with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   []domain.RawOutageRecord
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) ([]domain.RawOutageRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !now.Before(e.expires) {
		delete(c.entries, key)
		c.unlink(e)
		return nil, false
	}
	c.moveToFront(e)
	return cloneRecords(e.value), true
}

func (c *lruCache) put(key string, value []domain.RawOutageRecord, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value = cloneRecords(value)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *lruCache) evictOldest() {
	if c.tail == nil {
		return
	}
	oldest := c.tail
	delete(c.entries, oldest.key)
	c.unlink(oldest)
}

// cloneRecords copies the slice so callers cannot reorder cached data.
func cloneRecords(records []domain.RawOutageRecord) []domain.RawOutageRecord {
	if records == nil {
		return nil
	}
	out := make([]domain.RawOutageRecord, len(records))
	copy(out, records)
	return out
}
