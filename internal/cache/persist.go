package cache

import (
	"context"

	"github.com/altseek/altseek/pkg/types"
)

// Persister is the slice of the storage manager the strategies depend
// on. A nil Persister means no durable storage is configured; every
// strategy degrades to memory-only behavior in that case.
type Persister interface {
	Save(ctx context.Context, key string, rec *types.Record) bool
	Load(ctx context.Context, key string) *types.Record
	BackendNames() []string
}

// SnapshotStore persists a whole store image in one operation. The
// quality-scored cache uses it to survive restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, records map[string]*types.Record) bool
	LoadSnapshot(ctx context.Context) map[string]*types.Record
}

// truncate shortens s to at most n runes, appending an ellipsis when
// anything was cut. Colder tiers use it for lossy compression.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
