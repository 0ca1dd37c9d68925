package cache

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ptanalysis/internal/infrastructure"
)

// defaultSweep is how often expired entries are dropped when no TTL is set.
const defaultSweep = 5 * time.Minute

// LoadFunc reads and parses the file behind a cache key.
type LoadFunc func() (any, error)

// entry is one loaded file plus the stat it was loaded against.
type entry struct {
	path      string
	value     any
	size      int64
	modTime   time.Time
	cachedAt  time.Time
	expiresAt time.Time
	hits      int64
}

func (e *entry) fresh(info os.FileInfo, now time.Time) bool {
	if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
		return false
	}
	return e.size == info.Size() && e.modTime.Equal(info.ModTime())
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries    int           `json:"entries"`
	Bytes      int64         `json:"bytes"`
	Hits       int64         `json:"hits"`
	Misses     int64         `json:"misses"`
	HitRatio   float64       `json:"hit_ratio"`
	TTL        time.Duration `json:"ttl"`
	Keys       []string      `json:"keys"`
	LastPurged time.Time     `json:"last_purged,omitempty"`
}

// Cache memoizes parsed files by path and variant. An entry is reused only
// while the file keeps the size and modification time it was loaded with
// and its TTL has not passed. Concurrent misses on the same key share one
// load.
type Cache struct {
	entries    map[string]*entry
	mutex      sync.RWMutex
	ttl        time.Duration
	hitCount   int64
	missCount  int64
	lastPurged time.Time

	group    singleflight.Group
	metrics  *infrastructure.DashboardMetrics
	logger   *slog.Logger
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine. A zero ttl keeps
// entries until their file changes. Call Stop to release the goroutine.
func New(ttl time.Duration, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		entries:  make(map[string]*entry),
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "dataset_cache")),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	sweep := defaultSweep
	if ttl > 0 && ttl < sweep {
		sweep = ttl
	}
	go c.cleanup(sweep)

	return c
}

// Key names the entry for one parse of path. The same file read two ways
// needs two variants.
func Key(path, variant string) string {
	if variant == "" {
		return path
	}
	return path + "#" + variant
}

// Get returns the cached value for path or calls load to produce it.
// A file that can no longer be stat'ed is evicted and the stat error
// returned. Load errors are never cached.
func (c *Cache) Get(ctx context.Context, path string, load LoadFunc) (any, error) {
	return c.GetVariant(ctx, path, "", load)
}

// GetVariant is Get for one named parse of path. Invalidating path drops
// every variant.
func (c *Cache) GetVariant(ctx context.Context, path, variant string, load LoadFunc) (any, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.Invalidate(ctx, path, "missing")
		return nil, err
	}

	key := Key(path, variant)
	if v, ok := c.lookup(key, info); ok {
		c.metrics.RecordCacheLookup(ctx, path, true)
		return v, nil
	}
	c.metrics.RecordCacheLookup(ctx, path, false)

	v, err, shared := c.group.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.store(key, path, info, v)
		return v, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Dataset load failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "Shared in-flight load", slog.String("key", key))
	}
	return v, nil
}

func (c *Cache) lookup(key string, info os.FileInfo) (any, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.fresh(info, c.now()) {
		if ok {
			delete(c.entries, key)
		}
		c.missCount++
		return nil, false
	}
	e.hits++
	c.hitCount++
	return e.value, true
}

func (c *Cache) store(key, path string, info os.FileInfo, v any) {
	now := c.now()
	e := &entry{
		path:     path,
		value:    v,
		size:     info.Size(),
		modTime:  info.ModTime(),
		cachedAt: now,
	}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}

	c.mutex.Lock()
	c.entries[key] = e
	c.mutex.Unlock()
}

// Invalidate drops every entry loaded from path. It reports whether any
// existed.
func (c *Cache) Invalidate(ctx context.Context, path, reason string) bool {
	c.group.Forget(path)

	c.mutex.Lock()
	n := 0
	for key, e := range c.entries {
		if e.path != path {
			continue
		}
		c.group.Forget(key)
		delete(c.entries, key)
		n++
	}
	c.mutex.Unlock()

	if n > 0 {
		c.metrics.RecordCacheInvalidation(ctx, reason, n)
		c.logger.DebugContext(ctx, "Cache entry invalidated",
			slog.String("path", path),
			slog.Int("entries", n),
			slog.String("reason", reason))
	}
	return n > 0
}

// InvalidateAll empties the cache and returns how many entries it dropped.
func (c *Cache) InvalidateAll(ctx context.Context, reason string) int {
	c.mutex.Lock()
	n := len(c.entries)
	for key := range c.entries {
		c.group.Forget(key)
	}
	c.entries = make(map[string]*entry)
	c.lastPurged = c.now()
	c.mutex.Unlock()

	c.metrics.RecordCacheInvalidation(ctx, reason, n)
	c.logger.InfoContext(ctx, "Cache cleared",
		slog.Int("entries", n),
		slog.String("reason", reason))
	return n
}

// Stats returns hit/miss counters and the current entries.
func (c *Cache) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	s := Stats{
		Entries:    len(c.entries),
		Hits:       c.hitCount,
		Misses:     c.missCount,
		TTL:        c.ttl,
		Keys:       make([]string, 0, len(c.entries)),
		LastPurged: c.lastPurged,
	}
	if total := c.hitCount + c.missCount; total > 0 {
		s.HitRatio = float64(c.hitCount) / float64(total)
	}
	for key, e := range c.entries {
		s.Bytes += e.size
		s.Keys = append(s.Keys, key)
	}
	sort.Strings(s.Keys)
	return s
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Cache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Cache) purgeExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	n := 0
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, key)
			n++
		}
	}
	if n > 0 {
		c.metrics.RecordCacheInvalidation(context.Background(), "expired", n)
	}
	return n
}
