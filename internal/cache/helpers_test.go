package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/altseek/altseek/internal/config"
	"github.com/altseek/altseek/pkg/types"
)

// fakePersister is an in-memory Persister with scriptable failures.
type fakePersister struct {
	records   map[string]*types.Record
	failSaves bool
	saves     int
	loads     int
}

func newFakePersister() *fakePersister {
	return &fakePersister{records: make(map[string]*types.Record)}
}

func (p *fakePersister) Save(_ context.Context, key string, rec *types.Record) bool {
	p.saves++
	if p.failSaves {
		return false
	}
	p.records[key] = rec
	return true
}

func (p *fakePersister) Load(_ context.Context, key string) *types.Record {
	p.loads++
	return p.records[key]
}

func (p *fakePersister) BackendNames() []string {
	return []string{"fake"}
}

// marshalingPersister serializes every record it is handed, the way
// the real backends do, so races with in-place record mutation surface.
type marshalingPersister struct {
	mu    sync.Mutex
	saves int
}

func (p *marshalingPersister) Save(_ context.Context, _ string, rec *types.Record) bool {
	if _, err := json.Marshal(rec); err != nil {
		return false
	}
	p.mu.Lock()
	p.saves++
	p.mu.Unlock()
	return true
}

func (p *marshalingPersister) Load(context.Context, string) *types.Record { return nil }

func (p *marshalingPersister) BackendNames() []string { return []string{"marshaling"} }

// fakeSnapshot records snapshot saves and serves a canned image.
type fakeSnapshot struct {
	image     map[string]*types.Record
	saves     int
	lastSaved map[string]*types.Record
}

func (s *fakeSnapshot) SaveSnapshot(_ context.Context, records map[string]*types.Record) bool {
	s.saves++
	s.lastSaved = make(map[string]*types.Record, len(records))
	for k, v := range records {
		s.lastSaved[k] = v
	}
	return true
}

func (s *fakeSnapshot) LoadSnapshot(context.Context) map[string]*types.Record {
	return s.image
}

func testCacheConfig() config.CacheConfig {
	return config.DefaultConfiguration().Cache
}

func altNamed(name string) []types.Alternative {
	return []types.Alternative{{
		Name:        name,
		Description: "A " + strings.ToLower(name) + " style alternative",
		Pros:        []string{"fast", "open source"},
		Cons:        []string{"smaller community"},
		Rating:      4.2,
	}}
}

// backdate shifts a record's timestamps into the past.
func backdate(rec *types.Record, age time.Duration) {
	rec.CreatedAt = rec.CreatedAt.Add(-age)
	rec.LastAccessed = rec.LastAccessed.Add(-age)
}
