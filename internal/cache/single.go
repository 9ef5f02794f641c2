package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/config"
	"github.com/altseek/altseek/pkg/types"
)

// SingleCache is the simplest strategy: one in-process map keyed by
// normalized product name, with synchronous write-through to durable
// storage when the environment allows it.
type SingleCache struct {
	mu      sync.Mutex
	entries map[string]*types.Record
	order   []string // insertion order, keeps stats ties stable

	cfg           config.CacheConfig
	persist       Persister
	durableWrites bool
	logger        *zap.Logger

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewSingle creates a single-level cache. persist may be nil; when
// durableWrites is false every write-through is suppressed silently.
func NewSingle(cfg config.CacheConfig, persist Persister, durableWrites bool, logger *zap.Logger) *SingleCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SingleCache{
		entries:       make(map[string]*types.Record),
		cfg:           cfg,
		persist:       persist,
		durableWrites: durableWrites,
		logger:        logger.Named("single"),
	}
}

// Get returns the alternatives for a product name, or nil on miss. A
// hit bumps the record's access statistics and writes the mutation
// through to durable storage.
func (c *SingleCache) Get(ctx context.Context, productName string) []types.Alternative {
	key := types.NormalizeKey(productName)

	c.mu.Lock()
	rec, ok := c.entries[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		c.logger.Debug("cache miss", zap.String("key", key))
		return nil
	}
	rec.Touch(time.Now())
	c.hits++
	// Copy before unlocking: the backend marshals outside the lock while
	// concurrent hits keep touching the live record.
	snap := *rec
	c.mu.Unlock()

	c.writeThrough(ctx, key, &snap)
	return snap.Alternatives
}

// Set stores freshly generated alternatives under the normalized key.
// Empty and sentinel results are rejected without error.
func (c *SingleCache) Set(ctx context.Context, productName string, alternatives []types.Alternative, source types.Source) {
	if !types.Cacheable(alternatives) {
		c.logger.Debug("rejecting uncacheable result", zap.String("key", productName))
		return
	}
	key := types.NormalizeKey(productName)
	rec := types.NewRecord(alternatives, source, time.Now())

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = rec
	snap := *rec
	c.mu.Unlock()

	c.writeThrough(ctx, key, &snap)
}

// writeThrough persists a record when durable writes are enabled. The
// manager already logs failures; nothing propagates to the caller.
func (c *SingleCache) writeThrough(ctx context.Context, key string, rec *types.Record) {
	if !c.durableWrites || c.persist == nil {
		return
	}
	c.persist.Save(ctx, key, rec)
}

// Cleanup removes records older than maxAge that were searched fewer
// than twice. Popular records survive regardless of age. Returns the
// number of removals.
func (c *SingleCache) Cleanup(_ context.Context, maxAge time.Duration) int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, rec := range c.entries {
		if now.Sub(rec.CreatedAt) > maxAge && rec.SearchCount < 2 {
			delete(c.entries, key)
			c.removeFromOrder(key)
			c.evictions++
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info("cleanup removed stale records", zap.Int("removed", removed))
	}
	return removed
}

// Maintain runs the periodic age-based cleanup.
func (c *SingleCache) Maintain(ctx context.Context) {
	c.Cleanup(ctx, c.cfg.MaxAge)
}

// ItemCount reports the number of records currently held.
func (c *SingleCache) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats summarizes the cache: totals, per-source counts and the ten
// most-searched records. Ties keep insertion order.
func (c *SingleCache) Stats() types.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := types.CacheStats{
		TotalEntries: len(c.entries),
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
	}
	for _, rec := range c.entries {
		if rec.Source == types.SourceAI {
			stats.AIGenerated++
		} else {
			stats.Manual++
		}
	}
	stats.MostSearched = c.topSearchedLocked(10)
	return stats
}

// topSearchedLocked ranks records by search count descending. The
// insertion-order walk plus a stable sort keeps ties deterministic.
func (c *SingleCache) topSearchedLocked(n int) []types.SearchRank {
	ranks := make([]types.SearchRank, 0, len(c.order))
	for _, key := range c.order {
		rec, ok := c.entries[key]
		if !ok {
			continue
		}
		ranks = append(ranks, types.SearchRank{Name: key, Count: rec.SearchCount})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Count > ranks[j].Count
	})
	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

// Popular returns the records searched at least minCount times, keyed
// by normalized name. The export-to-durable admin action consumes it.
func (c *SingleCache) Popular(minCount int) map[string]*types.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	popular := make(map[string]*types.Record)
	for key, rec := range c.entries {
		if rec.SearchCount >= minCount {
			popular[key] = rec
		}
	}
	return popular
}

func (c *SingleCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
