package storage

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/circuit"
	"github.com/altseek/altseek/pkg/types"
)

// Manager chains a primary and a fallback durable backend. Save tries
// the primary and falls back only on failure; Load follows the same
// order, short-circuiting on the first hit. Each backend sits behind
// its own circuit breaker so a dead dependency stops being paid for
// on every request.
type Manager struct {
	logger   *zap.Logger
	primary  types.DurableBackend
	fallback types.DurableBackend
	breakers map[string]*circuit.Breaker
	errors   atomic.Uint64
}

// NewManager creates a backend manager. Either backend may be nil; a
// manager with no backends degrades to false/nil results.
func NewManager(logger *zap.Logger, primary, fallback types.DurableBackend) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		logger:   logger.Named("storage"),
		primary:  primary,
		fallback: fallback,
		breakers: make(map[string]*circuit.Breaker),
	}
	for _, b := range []types.DurableBackend{primary, fallback} {
		if b != nil {
			m.breakers[b.Name()] = circuit.New(b.Name(), circuit.Config{})
		}
	}
	return m
}

// Save persists a record through the backend chain. The fallback is
// attempted only when the primary reports failure, never both
// unconditionally.
func (m *Manager) Save(ctx context.Context, key string, rec *types.Record) bool {
	if m.trySave(ctx, m.primary, key, rec) {
		return true
	}
	return m.trySave(ctx, m.fallback, key, rec)
}

// Load retrieves a record through the backend chain, short-circuiting
// on the first non-nil result.
func (m *Manager) Load(ctx context.Context, key string) *types.Record {
	if rec := m.tryLoad(ctx, m.primary, key); rec != nil {
		return rec
	}
	return m.tryLoad(ctx, m.fallback, key)
}

// Errors reports the cumulative count of failed backend saves.
func (m *Manager) Errors() uint64 {
	return m.errors.Load()
}

// BackendNames lists the configured backends in chain order.
func (m *Manager) BackendNames() []string {
	names := make([]string, 0, 2)
	if m.primary != nil {
		names = append(names, m.primary.Name())
	}
	if m.fallback != nil {
		names = append(names, m.fallback.Name())
	}
	return names
}

func (m *Manager) trySave(ctx context.Context, b types.DurableBackend, key string, rec *types.Record) bool {
	if b == nil {
		return false
	}
	br := m.breakers[b.Name()]
	if !br.Allow() {
		m.logger.Debug("circuit open, skipping save",
			zap.String("backend", b.Name()), zap.String("key", key))
		return false
	}
	if !b.Save(ctx, key, rec) {
		br.Failure()
		m.errors.Add(1)
		m.logger.Warn("backend save failed",
			zap.String("backend", b.Name()), zap.String("key", key))
		return false
	}
	br.Success()
	return true
}

func (m *Manager) tryLoad(ctx context.Context, b types.DurableBackend, key string) *types.Record {
	if b == nil {
		return nil
	}
	br := m.breakers[b.Name()]
	if !br.Allow() {
		m.logger.Debug("circuit open, skipping load",
			zap.String("backend", b.Name()), zap.String("key", key))
		return nil
	}
	rec := b.Load(ctx, key)
	if rec == nil {
		// The contract flattens load failures into nil, so a miss is
		// indistinguishable here. Only saves drive the breaker trip.
		return nil
	}
	br.Success()
	return rec
}
