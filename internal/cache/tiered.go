package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/altseek/altseek/pkg/types"
)

// TierPolicy describes one level of the hot/warm/cold/archive
// hierarchy. AccessCost is a relative number used for diagnostics
// only; CompressionRatio feeds the size estimate.
type TierPolicy struct {
	Name             string
	MaxItems         int
	MaxAge           time.Duration // zero means unbounded
	CompressionRatio float64
	AccessCost       int
}

// DefaultTierPolicies is the production tier table.
func DefaultTierPolicies() []TierPolicy {
	return []TierPolicy{
		{Name: "hot", MaxItems: 1000, MaxAge: 24 * time.Hour, CompressionRatio: 1.0, AccessCost: 1},
		{Name: "warm", MaxItems: 10000, MaxAge: 7 * 24 * time.Hour, CompressionRatio: 0.7, AccessCost: 2},
		{Name: "cold", MaxItems: 100000, MaxAge: 30 * 24 * time.Hour, CompressionRatio: 0.5, AccessCost: 5},
		{Name: "archive", MaxItems: 1000000, MaxAge: 0, CompressionRatio: 0.3, AccessCost: 10},
	}
}

const (
	// Promotion thresholds: heavily accessed entries always move up;
	// recently accessed ones need only a couple of hits.
	promoteCountAlways = 5
	promoteCountRecent = 2
	promoteRecentFor   = time.Hour

	// Access-log entries idle longer than this are pruned.
	accessLogMaxIdle = 30 * 24 * time.Hour

	// Demotion compression truncates descriptions and drops the
	// pro/con lists entirely.
	tierDescriptionRunes = 50

	// Rough per-record size used for the stats estimate, scaled by
	// each tier's compression ratio.
	approxRecordBytes = 2048
)

type accessInfo struct {
	count      int
	lastAccess time.Time
}

// TieredStore keeps records across four ordered tiers, promoting on
// access frequency and demoting oldest-first on capacity pressure.
type TieredStore struct {
	mu       sync.Mutex
	policies []TierPolicy
	tiers    []map[string]*types.Record
	access   map[string]*accessInfo
	logger   *zap.Logger

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewTiered creates a tiered store with the production tier table.
func NewTiered(logger *zap.Logger) *TieredStore {
	return NewTieredWithPolicies(DefaultTierPolicies(), logger)
}

// NewTieredWithPolicies creates a tiered store with a custom tier
// table, ordered warmest first.
func NewTieredWithPolicies(policies []TierPolicy, logger *zap.Logger) *TieredStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	tiers := make([]map[string]*types.Record, len(policies))
	for i := range tiers {
		tiers[i] = make(map[string]*types.Record)
	}
	return &TieredStore{
		policies: policies,
		tiers:    tiers,
		access:   make(map[string]*accessInfo),
		logger:   logger.Named("tiered"),
	}
}

// Get scans tiers warmest to coldest. A hit records the access and may
// promote the record one tier up; the promoted value keeps whatever
// lossy compression earlier demotions applied.
func (s *TieredStore) Get(_ context.Context, productName string) []types.Alternative {
	key := types.NormalizeKey(productName)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tier := range s.tiers {
		rec, ok := tier[key]
		if !ok {
			continue
		}
		rec.Touch(now)
		info := s.access[key]
		if info == nil {
			info = &accessInfo{}
			s.access[key] = info
		}
		info.count++
		info.lastAccess = now

		if i > 0 && shouldPromote(info, now) {
			delete(tier, key)
			s.tiers[i-1][key] = rec
			s.logger.Debug("promoted record",
				zap.String("key", key),
				zap.String("from", s.policies[i].Name),
				zap.String("to", s.policies[i-1].Name))
		}
		s.hits++
		return rec.Alternatives
	}
	s.misses++
	return nil
}

func shouldPromote(info *accessInfo, now time.Time) bool {
	if info.count >= promoteCountAlways {
		return true
	}
	return now.Sub(info.lastAccess) < promoteRecentFor && info.count >= promoteCountRecent
}

// Set inserts a fresh record into the hot tier and rebalances. Any
// colder copy of the key is removed first so a key never lives in two
// tiers at once.
func (s *TieredStore) Set(_ context.Context, productName string, alternatives []types.Alternative, source types.Source) {
	if !types.Cacheable(alternatives) {
		s.logger.Debug("rejecting uncacheable result", zap.String("key", productName))
		return
	}
	key := types.NormalizeKey(productName)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tier := range s.tiers {
		delete(tier, key)
	}
	s.tiers[0][key] = types.NewRecord(alternatives, source, now)
	s.access[key] = &accessInfo{count: 1, lastAccess: now}
	s.rebalanceLocked()
}

// Rebalance demotes each tier's excess to the next colder tier,
// oldest-accessed first. Excess in the archive tier is deleted.
func (s *TieredStore) Rebalance(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebalanceLocked()
}

func (s *TieredStore) rebalanceLocked() {
	for i, tier := range s.tiers {
		excess := len(tier) - s.policies[i].MaxItems
		if excess <= 0 {
			continue
		}
		for _, key := range s.oldestKeysLocked(tier, excess) {
			rec := tier[key]
			delete(tier, key)
			if i == len(s.tiers)-1 {
				delete(s.access, key)
				s.evictions++
				continue
			}
			compressForTier(rec)
			s.tiers[i+1][key] = rec
			s.logger.Debug("demoted record",
				zap.String("key", key),
				zap.String("from", s.policies[i].Name),
				zap.String("to", s.policies[i+1].Name))
		}
	}
}

// oldestKeysLocked returns the n least-recently-accessed keys of a
// tier. Keys with no access log sort first.
func (s *TieredStore) oldestKeysLocked(tier map[string]*types.Record, n int) []string {
	keys := make([]string, 0, len(tier))
	for key := range tier {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := s.lastAccessLocked(keys[i]), s.lastAccessLocked(keys[j])
		if ti.Equal(tj) {
			return keys[i] < keys[j]
		}
		return ti.Before(tj)
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func (s *TieredStore) lastAccessLocked(key string) time.Time {
	if info, ok := s.access[key]; ok {
		return info.lastAccess
	}
	return time.Time{}
}

// compressForTier applies the demotion compression in place:
// descriptions are truncated and pro/con lists dropped.
func compressForTier(rec *types.Record) {
	for i := range rec.Alternatives {
		rec.Alternatives[i].Description = truncate(rec.Alternatives[i].Description, tierDescriptionRunes)
		rec.Alternatives[i].Pros = nil
		rec.Alternatives[i].Cons = nil
	}
}

// Cleanup prunes access-log entries whose key left every tier or that
// have been idle past the window, then rebalances.
func (s *TieredStore) Cleanup(context.Context) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for key, info := range s.access {
		if s.presentLocked(key) && now.Sub(info.lastAccess) <= accessLogMaxIdle {
			continue
		}
		delete(s.access, key)
		pruned++
	}
	if pruned > 0 {
		s.logger.Info("pruned access log", zap.Int("pruned", pruned))
	}
	s.rebalanceLocked()
}

func (s *TieredStore) presentLocked(key string) bool {
	for _, tier := range s.tiers {
		if _, ok := tier[key]; ok {
			return true
		}
	}
	return false
}

// Maintain runs the periodic cleanup-and-rebalance sweep.
func (s *TieredStore) Maintain(ctx context.Context) {
	s.Cleanup(ctx)
}

// ItemCount reports records across all tiers.
func (s *TieredStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, tier := range s.tiers {
		total += len(tier)
	}
	return total
}

// GetStorageStats reports per-tier population, utilization and a rough
// size estimate scaled by each tier's compression ratio.
func (s *TieredStore) GetStorageStats() types.StorageStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := types.StorageStats{Tiers: make([]types.TierStats, len(s.tiers))}
	for i, tier := range s.tiers {
		p := s.policies[i]
		utilization := 0
		if p.MaxItems > 0 {
			utilization = len(tier) * 100 / p.MaxItems
		}
		stats.Tiers[i] = types.TierStats{
			Name:               p.Name,
			Items:              len(tier),
			MaxItems:           p.MaxItems,
			UtilizationPercent: utilization,
			EstimatedSize:      formatBytes(float64(len(tier)) * approxRecordBytes * p.CompressionRatio),
		}
		stats.TotalItems += len(tier)
	}
	for _, info := range s.access {
		stats.TotalAccesses += info.count
	}
	return stats
}

// Popular returns the records searched at least minCount times across
// all tiers.
func (s *TieredStore) Popular(minCount int) map[string]*types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	popular := make(map[string]*types.Record)
	for _, tier := range s.tiers {
		for key, rec := range tier {
			if rec.SearchCount >= minCount {
				popular[key] = rec
			}
		}
	}
	return popular
}
