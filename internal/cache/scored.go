package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/config"
	"github.com/altseek/altseek/pkg/types"
)

const (
	// Records scoring below this are cleanup candidates.
	cleanupScoreThreshold = 30
	// Low-traffic records older than this qualify for cleanup.
	cleanupUnpopularAge = 7 * 24 * time.Hour
	// Cleanup never shrinks the store below this fraction of capacity.
	cleanupFloorFraction = 0.5
	// Population above this fraction of capacity triggers cleanup.
	cleanupTriggerFraction = 0.8

	// Lossy compression limits applied on Set when enabled.
	scoredDescriptionRunes = 97
	scoredMaxPros          = 3
	scoredMaxCons          = 2
)

// ScoredCache extends the single-level contract with a 0-100 quality
// score per record, score-ordered eviction, optional lossy compression
// and whole-store snapshot persistence.
type ScoredCache struct {
	mu      sync.Mutex
	entries map[string]*types.Record
	order   []string

	cfg      config.CacheConfig
	snapshot SnapshotStore
	logger   *zap.Logger

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewScored creates a quality-scored cache, hydrating from the
// snapshot store when one is configured. Only records that were
// searched at least MinSearchCount times are loaded back.
func NewScored(ctx context.Context, cfg config.CacheConfig, snapshot SnapshotStore, logger *zap.Logger) *ScoredCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ScoredCache{
		entries:  make(map[string]*types.Record),
		cfg:      cfg,
		snapshot: snapshot,
		logger:   logger.Named("scored"),
	}
	c.hydrate(ctx)
	return c
}

func (c *ScoredCache) hydrate(ctx context.Context) {
	if c.snapshot == nil {
		return
	}
	records := c.snapshot.LoadSnapshot(ctx)
	if len(records) == 0 {
		return
	}
	now := time.Now()
	loaded := 0
	for key, rec := range records {
		if rec == nil || rec.SearchCount < c.cfg.MinSearchCount {
			continue
		}
		rec.Quality = types.QualityScore(rec, now)
		c.entries[key] = rec
		c.order = append(c.order, key)
		loaded++
	}
	c.logger.Info("hydrated from snapshot",
		zap.Int("loaded", loaded),
		zap.Int("skipped", len(records)-loaded))
}

// Get returns the alternatives for a product name, recomputing the
// record's quality score on the way out.
func (c *ScoredCache) Get(_ context.Context, productName string) []types.Alternative {
	key := types.NormalizeKey(productName)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.entries[key]
	if !ok {
		c.misses++
		c.logger.Debug("cache miss", zap.String("key", key))
		return nil
	}
	rec.Touch(now)
	rec.Quality = types.QualityScore(rec, now)
	c.hits++
	return rec.Alternatives
}

// Set stores alternatives, compressing them when compression is
// enabled, then persists a snapshot guarded by the byte ceiling.
func (c *ScoredCache) Set(ctx context.Context, productName string, alternatives []types.Alternative, source types.Source) {
	if !types.Cacheable(alternatives) {
		c.logger.Debug("rejecting uncacheable result", zap.String("key", productName))
		return
	}
	key := types.NormalizeKey(productName)
	now := time.Now()

	if c.cfg.CompressionEnabled {
		alternatives = compressAlternatives(alternatives)
	}
	rec := types.NewRecord(alternatives, source, now)
	rec.Quality = types.QualityScore(rec, now)

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = rec

	if len(c.entries) > int(float64(c.cfg.MaxEntries)*cleanupTriggerFraction) {
		c.intelligentCleanupLocked(now)
	}
	c.persistLocked(ctx, now)
	c.mu.Unlock()
}

// IntelligentCleanup evicts low-value records in ascending score order,
// stopping at half the configured capacity. Returns removals.
func (c *ScoredCache) IntelligentCleanup(context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intelligentCleanupLocked(time.Now())
}

func (c *ScoredCache) intelligentCleanupLocked(now time.Time) int {
	type candidate struct {
		key   string
		score int
	}
	var candidates []candidate
	for key, rec := range c.entries {
		rec.Quality = types.QualityScore(rec, now)
		lowScore := rec.Quality < cleanupScoreThreshold
		unpopular := rec.SearchCount < 2 && now.Sub(rec.CreatedAt) > cleanupUnpopularAge
		idle := now.Sub(rec.LastAccessed) > c.cfg.MaxAge
		if lowScore || unpopular || idle {
			candidates = append(candidates, candidate{key: key, score: rec.Quality})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	// One sweep never shrinks the store past the floor, even when many
	// records qualify.
	floor := int(float64(c.cfg.MaxEntries) * cleanupFloorFraction)
	removed := 0
	for _, cand := range candidates {
		if len(c.entries) <= floor {
			break
		}
		delete(c.entries, cand.key)
		c.removeFromOrder(cand.key)
		c.evictions++
		removed++
	}
	if removed > 0 {
		c.logger.Info("intelligent cleanup evicted records",
			zap.Int("removed", removed),
			zap.Int("remaining", len(c.entries)))
	}
	return removed
}

// persistLocked snapshots the store. When the serialized image would
// exceed the byte ceiling it cleans up instead of writing.
func (c *ScoredCache) persistLocked(ctx context.Context, now time.Time) {
	if c.snapshot == nil {
		return
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		c.logger.Warn("snapshot marshal failed", zap.Error(err))
		return
	}
	if len(data) > c.cfg.MaxSizeBytes {
		c.logger.Warn("snapshot over byte ceiling, cleaning up instead",
			zap.Int("bytes", len(data)),
			zap.Int("ceiling", c.cfg.MaxSizeBytes))
		c.intelligentCleanupLocked(now)
		return
	}
	c.snapshot.SaveSnapshot(ctx, c.entries)
}

// Maintain runs the hourly sweep: cleanup, then snapshot.
func (c *ScoredCache) Maintain(ctx context.Context) {
	now := time.Now()
	c.mu.Lock()
	c.intelligentCleanupLocked(now)
	c.persistLocked(ctx, now)
	c.mu.Unlock()
}

// ItemCount reports the number of records currently held.
func (c *ScoredCache) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats summarizes the cache including the average quality score and a
// serialized-size estimate.
func (c *ScoredCache) Stats() types.CacheStats {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := types.CacheStats{
		TotalEntries: len(c.entries),
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
	}
	qualitySum := 0
	ranks := make([]types.SearchRank, 0, len(c.order))
	for _, key := range c.order {
		rec, ok := c.entries[key]
		if !ok {
			continue
		}
		if rec.Source == types.SourceAI {
			stats.AIGenerated++
		} else {
			stats.Manual++
		}
		rec.Quality = types.QualityScore(rec, now)
		qualitySum += rec.Quality
		ranks = append(ranks, types.SearchRank{Name: key, Count: rec.SearchCount, Quality: rec.Quality})
	}
	if len(c.entries) > 0 {
		stats.AvgQuality = qualitySum / len(c.entries)
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Count > ranks[j].Count
	})
	if len(ranks) > 10 {
		ranks = ranks[:10]
	}
	stats.MostSearched = ranks

	if data, err := json.Marshal(c.entries); err == nil {
		stats.SizeEstimate = formatBytes(float64(len(data)))
	}
	return stats
}

// Popular returns the records searched at least minCount times.
func (c *ScoredCache) Popular(minCount int) map[string]*types.Record {
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

func (c *ScoredCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// compressAlternatives applies the lossy storage compression: long
// descriptions are truncated and pro/con lists trimmed.
func compressAlternatives(alternatives []types.Alternative) []types.Alternative {
	compressed := make([]types.Alternative, len(alternatives))
	for i, alt := range alternatives {
		alt.Description = truncate(alt.Description, scoredDescriptionRunes)
		if len(alt.Pros) > scoredMaxPros {
			alt.Pros = alt.Pros[:scoredMaxPros]
		}
		if len(alt.Cons) > scoredMaxCons {
			alt.Cons = alt.Cons[:scoredMaxCons]
		}
		compressed[i] = alt
	}
	return compressed
}

// formatBytes renders a byte count for human consumption in stats.
func formatBytes(b float64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", b/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", b/(1<<10))
	default:
		return fmt.Sprintf("%.0f B", b)
	}
}
