// Package orchestrator is the subsystem facade. It holds exactly one
// active caching strategy, delegates get/set to it, re-evaluates the
// choice on a schedule and aggregates cross-cutting statistics.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/cache"
	"github.com/altseek/altseek/internal/config"
	"github.com/altseek/altseek/internal/metrics"
	"github.com/altseek/altseek/internal/storage"
	alterrors "github.com/altseek/altseek/pkg/errors"
	"github.com/altseek/altseek/pkg/types"
)

// Strategy names accepted by SwitchStrategy.
const (
	StrategySingleLevel = "single-level"
	StrategyTiered      = "tiered"
	StrategyHybrid      = "hybrid"
)

// Item-count thresholds for automatic strategy selection.
const (
	tieredThreshold = 10000
	hybridThreshold = 100000
)

const (
	autoSelectEvery = 10 * time.Minute
	cleanupEvery    = time.Hour
)

// popularExporter is implemented by strategies that can enumerate
// their well-searched records for the export admin action.
type popularExporter interface {
	Popular(minCount int) map[string]*types.Record
}

// Orchestrator fronts the caching subsystem: one active strategy,
// uniform Get/Set, scheduled maintenance and operator statistics.
type Orchestrator struct {
	mu         sync.Mutex
	active     string
	strategies map[string]types.Strategy

	cfg       *config.Configuration
	manager   *storage.Manager
	collector *metrics.Collector
	logger    *zap.Logger
	scheduler gocron.Scheduler

	hits         uint64
	misses       uint64
	avgLatencyMs float64
}

// New builds an orchestrator with all three strategies constructed and
// single-level active. The single-level slot holds the quality-scored
// cache when durable writes are allowed and a snapshot store exists;
// on ephemeral platforms it degrades to the plain memory-only cache.
func New(ctx context.Context, cfg *config.Configuration, manager *storage.Manager, snapshot cache.SnapshotStore, collector *metrics.Collector, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("orchestrator")

	// A nil manager must stay a nil Persister; wrapping it directly
	// would defeat the strategies' nil checks.
	var persist cache.Persister
	if manager != nil {
		persist = manager
	}

	var singleLevel types.Strategy
	if cfg.Storage.DurableWrites && snapshot != nil {
		singleLevel = cache.NewScored(ctx, cfg.Cache, snapshot, logger)
	} else {
		singleLevel = cache.NewSingle(cfg.Cache, persist, cfg.Storage.DurableWrites, logger)
	}

	return &Orchestrator{
		active: StrategySingleLevel,
		strategies: map[string]types.Strategy{
			StrategySingleLevel: singleLevel,
			StrategyTiered:      cache.NewTiered(logger),
			StrategyHybrid:      cache.NewHybrid(cfg.Hybrid, persist, logger),
		},
		cfg:       cfg,
		manager:   manager,
		collector: collector,
		logger:    logger,
	}
}

// Get looks the product up in the active strategy, recording latency
// and hit/miss counters.
func (o *Orchestrator) Get(ctx context.Context, productName string) []types.Alternative {
	start := time.Now()

	name, strat := o.activeStrategy()
	result := strat.Get(ctx, productName)
	elapsed := time.Since(start)

	o.mu.Lock()
	if result != nil {
		o.hits++
	} else {
		o.misses++
	}
	o.recordLatencyLocked(elapsed)
	o.mu.Unlock()

	if o.collector != nil {
		o.collector.ObserveGet(name, result != nil, elapsed)
	}
	return result
}

// Set stores the alternatives through the active strategy.
func (o *Orchestrator) Set(ctx context.Context, productName string, alternatives []types.Alternative, source types.Source) {
	start := time.Now()

	name, strat := o.activeStrategy()
	strat.Set(ctx, productName, alternatives, source)
	elapsed := time.Since(start)

	o.mu.Lock()
	o.recordLatencyLocked(elapsed)
	o.mu.Unlock()

	if o.collector != nil {
		o.collector.ObserveSet(name, elapsed)
	}
}

// recordLatencyLocked folds one observation into the moving average.
func (o *Orchestrator) recordLatencyLocked(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000
	if o.avgLatencyMs == 0 {
		o.avgLatencyMs = ms
		return
	}
	o.avgLatencyMs = (o.avgLatencyMs + ms) / 2
}

func (o *Orchestrator) activeStrategy() (string, types.Strategy) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active, o.strategies[o.active]
}

// ActiveStrategy reports the name of the strategy in use.
func (o *Orchestrator) ActiveStrategy() string {
	name, _ := o.activeStrategy()
	return name
}

// ItemCount reports the active strategy's population.
func (o *Orchestrator) ItemCount() int {
	_, strat := o.activeStrategy()
	return strat.ItemCount()
}

// SwitchStrategy activates the named strategy. Unknown names are
// ignored with a warning; misconfiguration must not break requests.
func (o *Orchestrator) SwitchStrategy(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.strategies[name]; !ok {
		o.logger.Warn("ignoring unknown strategy",
			zap.String("strategy", name),
			zap.Error(alterrors.Newf(alterrors.CodeInvalidStrategy, "unknown strategy %q", name)))
		return
	}
	if o.active != name {
		o.logger.Info("switching strategy",
			zap.String("from", o.active), zap.String("to", name))
		o.active = name
	}
}

// AutoSelectStrategy re-evaluates the strategy choice against the
// current population and environment.
func (o *Orchestrator) AutoSelectStrategy() {
	items := o.ItemCount()
	chosen := chooseStrategy(items, o.cfg.IsDevelopment())
	if chosen != o.ActiveStrategy() {
		o.logger.Info("auto-selecting strategy",
			zap.Int("items", items), zap.String("chosen", chosen))
	}
	o.SwitchStrategy(chosen)
}

// chooseStrategy maps population and environment to a strategy name.
// Development stays on the simple strategy regardless of size.
func chooseStrategy(itemCount int, development bool) string {
	switch {
	case development || itemCount < tieredThreshold:
		return StrategySingleLevel
	case itemCount < hybridThreshold:
		return StrategyTiered
	default:
		return StrategyHybrid
	}
}

// Start schedules the maintenance jobs: strategy re-evaluation plus
// active-strategy maintenance every ten minutes, the hourly cleanup
// sweep, and the hybrid sync drain. Jobs never overlap themselves.
func (o *Orchestrator) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return alterrors.Wrap(alterrors.CodeInvalidState, "creating scheduler", err)
	}

	jobs := []struct {
		every time.Duration
		run   func()
	}{
		{autoSelectEvery, func() { o.maintenanceCycle(ctx) }},
		{cleanupEvery, func() { o.cleanupCycle(ctx) }},
		{o.cfg.Hybrid.SyncInterval, func() { o.strategies[StrategyHybrid].Maintain(ctx) }},
	}
	for _, j := range jobs {
		if _, err := scheduler.NewJob(
			gocron.DurationJob(j.every),
			gocron.NewTask(j.run),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return alterrors.Wrap(alterrors.CodeInvalidState, "registering job", err)
		}
	}

	scheduler.Start()
	o.scheduler = scheduler
	o.logger.Info("maintenance scheduler started")
	return nil
}

// maintenanceCycle is the ten-minute job: pick the right strategy,
// run its maintenance, publish gauges.
func (o *Orchestrator) maintenanceCycle(ctx context.Context) {
	o.AutoSelectStrategy()

	name, strat := o.activeStrategy()
	strat.Maintain(ctx)

	if o.collector == nil {
		return
	}
	o.collector.SetItemCount(strat.ItemCount())
	if name == StrategyTiered {
		if tiered, ok := strat.(*cache.TieredStore); ok {
			for _, tier := range tiered.GetStorageStats().Tiers {
				o.collector.SetTierItems(tier.Name, tier.Items)
			}
		}
	}
}

// BackendNames lists the configured durable backends in chain order.
func (o *Orchestrator) BackendNames() []string {
	if o.manager == nil {
		return nil
	}
	return o.manager.BackendNames()
}

// Cleanup runs the full sweep on demand; the admin surface triggers
// it between scheduled runs.
func (o *Orchestrator) Cleanup(ctx context.Context) {
	o.cleanupCycle(ctx)
}

// cleanupCycle is the hourly job: every strategy runs its sweep, not
// just the active one, so an idle strategy cannot hoard stale records.
func (o *Orchestrator) cleanupCycle(ctx context.Context) {
	o.mu.Lock()
	strategies := make([]types.Strategy, 0, len(o.strategies))
	for _, s := range o.strategies {
		strategies = append(strategies, s)
	}
	o.mu.Unlock()

	for _, s := range strategies {
		s.Maintain(ctx)
	}
}

// Close stops the scheduler, letting in-flight sweeps finish.
func (o *Orchestrator) Close() error {
	if o.scheduler == nil {
		return nil
	}
	if err := o.scheduler.Shutdown(); err != nil {
		return alterrors.Wrap(alterrors.CodeInvalidState, "stopping scheduler", err)
	}
	o.logger.Info("maintenance scheduler stopped")
	return nil
}
