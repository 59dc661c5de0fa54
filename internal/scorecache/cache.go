// Package scorecache holds computed scores keyed by fingerprint with a fixed
// TTL, a capacity bound and per-fingerprint build coalescence.
package scorecache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"

	"github.com/onnwee/gamerank/internal/ranking"
)

// Default cache parameters.
const (
	DefaultTTL      = 300 * time.Second
	DefaultCapacity = 100
	BucketSize      = 5 * time.Minute
)

// Fingerprint identifies one cached score. Group and Generation extend the
// (content, mode, bucket) triple so that A/B cohorts and config swaps never
// share entries.
type Fingerprint struct {
	ContentID  string
	Mode       ranking.Mode
	Bucket     int64
	Group      ranking.ABGroup
	Generation uint64
}

// NewFingerprint builds the fingerprint for contentID at now.
func NewFingerprint(contentID string, mode ranking.Mode, group ranking.ABGroup, generation uint64, now time.Time) Fingerprint {
	return Fingerprint{
		ContentID:  contentID,
		Mode:       mode,
		Bucket:     TimeBucket(now),
		Group:      group,
		Generation: generation,
	}
}

// TimeBucket returns floor(now_ms / 300000).
func TimeBucket(now time.Time) int64 {
	return now.UnixMilli() / BucketSize.Milliseconds()
}

// String returns the cache key.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%s|%s|%d|%s|%d", f.ContentID, f.Mode, f.Bucket, f.Group, f.Generation)
}

// BuildFunc computes a score on a cache miss.
type BuildFunc func() (ranking.ScoreResult, error)

type entry struct {
	result    ranking.ScoreResult
	expiresAt time.Time
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Builds    uint64 `json:"builds"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
}

// Cache is safe for concurrent use.
//
// Entries are only ever read with Peek, so the LRU's recency order equals
// insertion order. With a single TTL that is also expiry order, and
// RemoveOldest evicts the entry closest to expiring.
type Cache struct {
	mu    sync.RWMutex
	lru   *simplelru.LRU[string, entry]
	ttl   time.Duration
	clock clock.Clock
	group singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	builds    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache. Non-positive ttl or capacity fall back to the defaults;
// a nil clock uses the system clock.
func New(ttl time.Duration, capacity int, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clk == nil {
		clk = clock.New()
	}
	// NewLRU only fails for a non-positive size.
	lru, _ := simplelru.NewLRU[string, entry](capacity, nil)
	return &Cache{lru: lru, ttl: ttl, clock: clk}
}

// Get returns an unexpired entry for fp.
func (c *Cache) Get(fp Fingerprint) (ranking.ScoreResult, bool) {
	key := fp.String()
	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.lru.Peek(key)
	c.mu.RUnlock()
	if !ok {
		return ranking.ScoreResult{}, false
	}
	if !now.Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent build may have replaced it.
		if cur, ok := c.lru.Peek(key); ok && !now.Before(cur.expiresAt) {
			c.lru.Remove(key)
		}
		c.mu.Unlock()
		return ranking.ScoreResult{}, false
	}
	return e.result.Clone(), true
}

// GetOrBuild returns the cached score for fp or runs build. Concurrent calls
// for the same fingerprint share one build and receive equal results. With
// force set the lookup is skipped but the fresh result is still stored;
// forced calls coalesce only with each other. A failed build stores nothing
// and its error goes to every waiter.
//
// The boolean reports whether the result came from the cache.
func (c *Cache) GetOrBuild(fp Fingerprint, force bool, build BuildFunc) (ranking.ScoreResult, bool, error) {
	if build == nil {
		return ranking.ScoreResult{}, false, errors.New("scorecache: nil build func")
	}
	if !force {
		if res, ok := c.Get(fp); ok {
			c.hits.Add(1)
			return res, true, nil
		}
	}

	key := fp.String()
	flight := key
	if force {
		flight = key + "|force"
	}
	v, err, _ := c.group.Do(flight, func() (any, error) {
		if !force {
			if res, ok := c.Get(fp); ok {
				return cached{res}, nil
			}
		}
		c.builds.Add(1)
		res, err := build()
		if err != nil {
			return nil, err
		}
		c.put(key, res)
		return res, nil
	})
	if err != nil {
		c.misses.Add(1)
		return ranking.ScoreResult{}, false, err
	}

	switch r := v.(type) {
	case cached:
		c.hits.Add(1)
		return r.result.Clone(), true, nil
	case ranking.ScoreResult:
		c.misses.Add(1)
		return r.Clone(), false, nil
	}
	return ranking.ScoreResult{}, false, fmt.Errorf("%w: unexpected cache value %T", ranking.ErrInternal, v)
}

// cached marks a flight result that was served from the cache after the
// double-check.
type cached struct {
	result ranking.ScoreResult
}

func (c *Cache) put(key string, res ranking.ScoreResult) {
	e := entry{result: res.Clone(), expiresAt: c.clock.Now().Add(c.ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Remove first so a replaced key moves to the newest position.
	c.lru.Remove(key)
	if evicted := c.lru.Add(key, e); evicted {
		c.evictions.Add(1)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// Clear drops every entry. In-flight builds still complete and insert.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Builds:    c.builds.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.Len(),
	}
}
