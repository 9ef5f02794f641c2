package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/config"
	"github.com/altseek/altseek/pkg/types"
)

// HybridCache pairs a bounded local map with asynchronous batched
// write-through to durable storage. The durable backend is the source
// of truth for anything the local map evicts, so local eviction is
// plain FIFO rather than LRU.
type HybridCache struct {
	mu      sync.Mutex
	local   map[string]*types.Record
	order   []string // FIFO insertion order
	pending map[string]struct{}
	queue   []string // pending-sync keys in enqueue order

	cfg     config.HybridConfig
	persist Persister
	logger  *zap.Logger

	hits   uint64
	misses uint64
}

// NewHybrid creates a hybrid cache. persist may be nil; the cache then
// behaves as a bounded local map with a queue that never drains.
func NewHybrid(cfg config.HybridConfig, persist Persister, logger *zap.Logger) *HybridCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridCache{
		local:   make(map[string]*types.Record),
		pending: make(map[string]struct{}),
		cfg:     cfg,
		persist: persist,
		logger:  logger.Named("hybrid"),
	}
}

// Get serves local hits immediately. On a local miss it consults
// durable storage and opportunistically repopulates the local map when
// under capacity.
func (c *HybridCache) Get(ctx context.Context, productName string) []types.Alternative {
	key := types.NormalizeKey(productName)
	now := time.Now()

	c.mu.Lock()
	if rec, ok := c.local[key]; ok {
		rec.Touch(now)
		c.hits++
		c.mu.Unlock()
		return rec.Alternatives
	}
	c.mu.Unlock()

	if c.persist == nil {
		c.recordMiss(key)
		return nil
	}
	rec := c.persist.Load(ctx, key)
	if rec == nil {
		c.recordMiss(key)
		return nil
	}
	rec.Touch(now)

	c.mu.Lock()
	if _, ok := c.local[key]; !ok && len(c.local) < c.cfg.MaxLocalItems {
		c.local[key] = rec
		c.order = append(c.order, key)
	}
	c.hits++
	c.mu.Unlock()
	return rec.Alternatives
}

func (c *HybridCache) recordMiss(key string) {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	c.logger.Debug("cache miss", zap.String("key", key))
}

// Set writes to the local map and enqueues the key for the next sync
// cycle. It never blocks on durable storage.
func (c *HybridCache) Set(_ context.Context, productName string, alternatives []types.Alternative, source types.Source) {
	if !types.Cacheable(alternatives) {
		c.logger.Debug("rejecting uncacheable result", zap.String("key", productName))
		return
	}
	key := types.NormalizeKey(productName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.local[key]; !exists {
		c.order = append(c.order, key)
	}
	c.local[key] = types.NewRecord(alternatives, source, time.Now())

	for len(c.local) > c.cfg.MaxLocalItems {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.local, oldest)
	}

	if _, queued := c.pending[key]; !queued {
		c.pending[key] = struct{}{}
		c.queue = append(c.queue, key)
	}
}

// SyncBatch drains up to one batch of pending keys to durable storage.
// Keys stay queued until a save succeeds, so delivery is at-least-once;
// keys whose record was evicted locally are dropped. Returns the number
// of successful saves.
func (c *HybridCache) SyncBatch(ctx context.Context) int {
	type job struct {
		key string
		rec *types.Record
	}

	c.mu.Lock()
	n := c.cfg.SyncBatchSize
	if n > len(c.queue) {
		n = len(c.queue)
	}
	jobs := make([]job, 0, n)
	for _, key := range c.queue[:n] {
		j := job{key: key}
		// Copy the record: saves marshal outside the lock while hits
		// keep touching the live one.
		if rec := c.local[key]; rec != nil {
			snap := *rec
			j.rec = &snap
		}
		jobs = append(jobs, j)
	}
	c.mu.Unlock()

	if len(jobs) == 0 {
		return 0
	}

	synced := 0
	done := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if j.rec == nil {
			// Evicted before it ever synced; nothing left to persist.
			done = append(done, j.key)
			continue
		}
		if c.persist != nil && c.persist.Save(ctx, j.key, j.rec) {
			done = append(done, j.key)
			synced++
		}
	}

	c.mu.Lock()
	for _, key := range done {
		delete(c.pending, key)
	}
	remaining := c.queue[:0]
	for _, key := range c.queue {
		if _, still := c.pending[key]; still {
			remaining = append(remaining, key)
		}
	}
	c.queue = remaining
	c.mu.Unlock()

	c.logger.Debug("sync batch finished",
		zap.Int("synced", synced),
		zap.Int("attempted", len(jobs)))
	return synced
}

// Maintain runs a sync drain.
func (c *HybridCache) Maintain(ctx context.Context) {
	c.SyncBatch(ctx)
}

// ItemCount reports local records only; durable storage may hold more.
func (c *HybridCache) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.local)
}

// Stats reports local population, the sync backlog and the configured
// backend names.
func (c *HybridCache) Stats() types.HybridStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := types.HybridStats{
		LocalItems:  len(c.local),
		PendingSync: len(c.pending),
	}
	if c.persist != nil {
		stats.AvailableBackends = c.persist.BackendNames()
	}
	return stats
}

// Popular returns the local records searched at least minCount times.
func (c *HybridCache) Popular(minCount int) map[string]*types.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	popular := make(map[string]*types.Record)
	for key, rec := range c.local {
		if rec.SearchCount >= minCount {
			popular[key] = rec
		}
	}
	return popular
}
