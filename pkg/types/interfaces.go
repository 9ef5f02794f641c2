package types

import "context"

// Strategy is the uniform contract every cache strategy exposes to the
// storage orchestrator. Keys passed in are raw product names; each
// implementation applies NormalizeKey itself.
type Strategy interface {
	// Get returns the alternatives for a product name, or nil on miss.
	// A hit mutates the record's access statistics.
	Get(ctx context.Context, productName string) []Alternative

	// Set stores freshly generated alternatives. Empty or sentinel
	// results are silently rejected.
	Set(ctx context.Context, productName string, alternatives []Alternative, source Source)

	// ItemCount reports how many records the strategy currently holds.
	ItemCount() int

	// Maintain runs the strategy's periodic housekeeping.
	Maintain(ctx context.Context)
}

// DurableBackend is the save/load contract for persistence outside
// process memory. Implementations convert their own failures into the
// boolean/nil results; they never panic the request path.
type DurableBackend interface {
	// Save persists a record and reports success.
	Save(ctx context.Context, key string, rec *Record) bool

	// Load retrieves a record, or nil when absent or unreadable.
	Load(ctx context.Context, key string) *Record

	// Name identifies the backend in logs and stats.
	Name() string
}

// CacheStats summarizes a single-level or quality-scored cache.
type CacheStats struct {
	TotalEntries int          `json:"total_entries"`
	AIGenerated  int          `json:"ai_generated"`
	Manual       int          `json:"manual"`
	MostSearched []SearchRank `json:"most_searched"`
	AvgQuality   int          `json:"average_quality,omitempty"`
	Hits         uint64       `json:"hits"`
	Misses       uint64       `json:"misses"`
	Evictions    uint64       `json:"evictions"`
	SizeEstimate string       `json:"size_estimate,omitempty"`
}

// SearchRank is one row of a most-searched leaderboard.
type SearchRank struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Quality int    `json:"quality,omitempty"`
}

// TierStats describes one level of the tiered store.
type TierStats struct {
	Name               string `json:"name"`
	Items              int    `json:"items"`
	MaxItems           int    `json:"max_items"`
	UtilizationPercent int    `json:"utilization_percent"`
	EstimatedSize      string `json:"estimated_size"`
}

// StorageStats aggregates the tiered store.
type StorageStats struct {
	Tiers         []TierStats `json:"tiers"`
	TotalItems    int         `json:"total_items"`
	TotalAccesses int         `json:"total_accesses"`
}

// HybridStats describes the hybrid local+durable strategy.
type HybridStats struct {
	LocalItems        int      `json:"local_items"`
	PendingSync       int      `json:"pending_sync"`
	AvailableBackends []string `json:"available_backends"`
}

// OrchestratorStats is the operator-facing aggregate view.
type OrchestratorStats struct {
	CurrentStrategy string   `json:"current_strategy"`
	TotalItems      int      `json:"total_items"`
	HitRate         int      `json:"hit_rate"`
	AverageLatency  int      `json:"average_latency_ms"`
	StorageErrors   uint64   `json:"storage_errors"`
	Recommendations []string `json:"recommendations"`
}
