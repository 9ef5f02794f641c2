package orchestrator

import (
	"context"

	"go.uber.org/zap"
)

const (
	// Records searched at least this often qualify for export.
	exportMinSearchCount = 5
	// Exported records live under their own key prefix so they never
	// collide with regular cache records.
	exportKeyPrefix = "popular/"
)

// ExportPopular pushes the active strategy's well-searched records to
// durable storage under the popular/ prefix. Keys are already
// normalized, which makes the export idempotent: re-running it
// overwrites a key only when the in-memory record has the higher
// search count. Returns the number of records written.
func (o *Orchestrator) ExportPopular(ctx context.Context) int {
	if o.manager == nil {
		return 0
	}
	_, strat := o.activeStrategy()
	exporter, ok := strat.(popularExporter)
	if !ok {
		return 0
	}

	exported := 0
	for key, rec := range exporter.Popular(exportMinSearchCount) {
		exportKey := exportKeyPrefix + key
		if existing := o.manager.Load(ctx, exportKey); existing != nil && existing.SearchCount >= rec.SearchCount {
			continue
		}
		if o.manager.Save(ctx, exportKey, rec) {
			exported++
		}
	}
	o.logger.Info("exported popular records", zap.Int("exported", exported))
	return exported
}
