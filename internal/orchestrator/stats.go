package orchestrator

import (
	"math"

	"github.com/altseek/altseek/internal/cache"
	"github.com/altseek/altseek/pkg/types"
)

// Recommendation thresholds for the operator hints.
const (
	lowHitRatePercent = 50
	highLatencyMs     = 1000
	highErrorCount    = 10
)

// Item-count thresholds for StorageRecommendation; looser than the
// auto-selection ones because the recommendation is advisory.
const (
	recommendTieredAt = 1000
	recommendHybridAt = 50000
)

// ComprehensiveStats aggregates the orchestrator counters with
// threshold-derived operator recommendations.
func (o *Orchestrator) ComprehensiveStats() types.OrchestratorStats {
	o.mu.Lock()
	hits, misses := o.hits, o.misses
	avgLatency := o.avgLatencyMs
	active := o.active
	strat := o.strategies[active]
	o.mu.Unlock()

	stats := types.OrchestratorStats{
		CurrentStrategy: active,
		TotalItems:      strat.ItemCount(),
		AverageLatency:  int(math.Round(avgLatency)),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = int(float64(hits) / float64(total) * 100)
	}
	if o.manager != nil {
		stats.StorageErrors = o.manager.Errors()
	}
	stats.Recommendations = recommendations(stats)
	return stats
}

func recommendations(stats types.OrchestratorStats) []string {
	var recs []string
	if stats.HitRate < lowHitRatePercent {
		recs = append(recs, "hit rate is low, consider a larger cache or longer retention")
	}
	if stats.AverageLatency > highLatencyMs {
		recs = append(recs, "latency is high, consider upgrading to a faster storage tier")
	}
	if stats.StorageErrors > highErrorCount {
		recs = append(recs, "storage errors are elevated, check backend connectivity")
	}
	return recs
}

// StrategyStats returns the active strategy's own detail view: a
// CacheStats, StorageStats or HybridStats depending on what is active.
func (o *Orchestrator) StrategyStats() interface{} {
	_, strat := o.activeStrategy()
	switch s := strat.(type) {
	case *cache.SingleCache:
		return s.Stats()
	case *cache.ScoredCache:
		return s.Stats()
	case *cache.TieredStore:
		return s.GetStorageStats()
	case *cache.HybridCache:
		return s.Stats()
	default:
		return nil
	}
}

// StorageRecommendation is operator guidance mapping an expected item
// count to a strategy. It is never enforced automatically.
type StorageRecommendation struct {
	Strategy  string   `json:"strategy"`
	Reason    string   `json:"reason"`
	Benefits  []string `json:"benefits"`
	TradeOffs []string `json:"trade_offs"`
}

// RecommendStorage suggests a strategy for the given expected
// population.
func RecommendStorage(itemCount int) StorageRecommendation {
	switch {
	case itemCount < recommendTieredAt:
		return StorageRecommendation{
			Strategy: StrategySingleLevel,
			Reason:   "small working sets fit comfortably in one in-process map",
			Benefits: []string{"zero operational overhead", "lowest possible latency"},
			TradeOffs: []string{
				"no tier separation, popular and stale records compete for the same space",
			},
		}
	case itemCount < recommendHybridAt:
		return StorageRecommendation{
			Strategy: StrategyTiered,
			Reason:   "medium working sets benefit from hot/warm/cold separation",
			Benefits: []string{"popular records stay fast", "cold records are compressed"},
			TradeOffs: []string{
				"promotion and demotion add bookkeeping per access",
			},
		}
	default:
		return StorageRecommendation{
			Strategy: StrategyHybrid,
			Reason:   "large working sets need durable storage as the source of truth",
			Benefits: []string{"bounded memory footprint", "records survive restarts"},
			TradeOffs: []string{
				"local misses pay a durable-storage round trip",
				"writes reach durable storage asynchronously",
			},
		}
	}
}
