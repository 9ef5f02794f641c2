package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/altseek/altseek/internal/config"
	"github.com/altseek/altseek/pkg/types"
)

func newScored(t *testing.T, cfg config.CacheConfig, snap SnapshotStore) *ScoredCache {
	t.Helper()
	return NewScored(context.Background(), cfg, snap, zaptest.NewLogger(t))
}

func TestScoredCache_QualityRecomputedOnAccess(t *testing.T) {
	c := newScored(t, testCacheConfig(), nil)
	ctx := context.Background()

	c.Set(ctx, "notion", altNamed("Obsidian"), types.SourceManual)
	fresh := c.entries["notion"].Quality
	assert.Equal(t, 55, fresh) // base 50 + one search

	// Twenty days later the age penalty caps out.
	c.entries["notion"].CreatedAt = time.Now().Add(-20 * 24 * time.Hour)
	c.Get(ctx, "notion")

	assert.Equal(t, 40, c.entries["notion"].Quality) // 50 + 2*5 - 20
}

func TestScoredCache_IntelligentCleanupEvictsLowestFirst(t *testing.T) {
	cfg := testCacheConfig()
	cfg.MaxEntries = 2 // floor of 1
	c := newScored(t, cfg, nil)
	ctx := context.Background()

	c.Set(ctx, "worst", altNamed("A"), types.SourceManual)
	c.Set(ctx, "better", altNamed("B"), types.SourceManual)
	c.entries["better"].SearchCount = 3

	backdate(c.entries["worst"], 40*24*time.Hour)
	backdate(c.entries["better"], 40*24*time.Hour)

	removed := c.IntelligentCleanup(ctx)

	assert.Equal(t, 1, removed)
	assert.NotContains(t, c.entries, "worst")
	assert.Contains(t, c.entries, "better")
}

func TestScoredCache_CleanupNeverDropsBelowHalfCapacity(t *testing.T) {
	cfg := testCacheConfig()
	cfg.MaxEntries = 8 // floor of 4
	c := newScored(t, cfg, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		c.Set(ctx, name, altNamed(name), types.SourceManual)
		backdate(c.entries[name], 40*24*time.Hour)
	}

	removed := c.IntelligentCleanup(ctx)

	assert.Equal(t, 4, removed)
	assert.Equal(t, 4, c.ItemCount())
}

func TestScoredCache_AutoCleanupAboveEightyPercent(t *testing.T) {
	cfg := testCacheConfig()
	cfg.MaxEntries = 10
	c := newScored(t, cfg, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		c.Set(ctx, name, altNamed(name), types.SourceManual)
		backdate(c.entries[name], 40*24*time.Hour)
	}
	require.Equal(t, 8, c.ItemCount())

	// Ninth insert crosses the 80% trigger and sweeps down to the floor.
	c.Set(ctx, "ninth", altNamed("I"), types.SourceManual)

	assert.Equal(t, 5, c.ItemCount())
	assert.Contains(t, c.entries, "ninth")
}

func TestScoredCache_SetCompressesAlternatives(t *testing.T) {
	c := newScored(t, testCacheConfig(), nil)
	ctx := context.Background()

	long := make([]rune, 200)
	for i := range long {
		long[i] = 'x'
	}
	c.Set(ctx, "trello", []types.Alternative{{
		Name:        "Wekan",
		Description: string(long),
		Pros:        []string{"a", "b", "c", "d", "e"},
		Cons:        []string{"a", "b", "c"},
	}}, types.SourceAI)

	alt := c.entries["trello"].Alternatives[0]
	assert.Len(t, alt.Description, 100) // 97 chars plus ellipsis
	assert.Len(t, alt.Pros, 3)
	assert.Len(t, alt.Cons, 2)
}

func TestScoredCache_SizeGuardSkipsSnapshotWrite(t *testing.T) {
	cfg := testCacheConfig()
	cfg.MaxSizeBytes = 10
	snap := &fakeSnapshot{}
	c := newScored(t, cfg, snap)

	c.Set(context.Background(), "slack", altNamed("Zulip"), types.SourceAI)

	assert.Zero(t, snap.saves)
	assert.Equal(t, 1, c.ItemCount())
}

func TestScoredCache_SetPersistsSnapshot(t *testing.T) {
	snap := &fakeSnapshot{}
	c := newScored(t, testCacheConfig(), snap)

	c.Set(context.Background(), "slack", altNamed("Zulip"), types.SourceAI)

	assert.Equal(t, 1, snap.saves)
	assert.Contains(t, snap.lastSaved, "slack")
}

func TestScoredCache_HydrationFiltersRareRecords(t *testing.T) {
	now := time.Now()
	rare := types.NewRecord(altNamed("A"), types.SourceAI, now)
	popular := types.NewRecord(altNamed("B"), types.SourceAI, now)
	popular.SearchCount = 3

	snap := &fakeSnapshot{image: map[string]*types.Record{
		"rare":    rare,
		"popular": popular,
	}}
	c := newScored(t, testCacheConfig(), snap)

	assert.Equal(t, 1, c.ItemCount())
	assert.Contains(t, c.entries, "popular")
}

func TestScoredCache_StatsIncludeQuality(t *testing.T) {
	c := newScored(t, testCacheConfig(), nil)
	ctx := context.Background()

	c.Set(ctx, "slack", altNamed("Zulip"), types.SourceAI)
	c.Set(ctx, "notion", altNamed("Obsidian"), types.SourceManual)

	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.AIGenerated)
	assert.Equal(t, 1, stats.Manual)
	assert.Equal(t, 60, stats.AvgQuality) // (65 + 55) / 2
	assert.NotEmpty(t, stats.SizeEstimate)
	require.Len(t, stats.MostSearched, 2)
	assert.NotZero(t, stats.MostSearched[0].Quality)
}
