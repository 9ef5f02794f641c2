package badger

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

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(config.BadgerBackendConfig{InMemory: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func testRecord() *types.Record {
	return types.NewRecord([]types.Alternative{
		{Name: "Obsidian", Description: "Local-first notes", Rating: 4.7},
	}, types.SourceManual, time.Now().UTC())
}

func TestBackend_SaveLoadRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	rec := testRecord()
	require.True(t, b.Save(ctx, "notion", rec))

	got := b.Load(ctx, "notion")
	require.NotNil(t, got)
	assert.Equal(t, rec.Alternatives, got.Alternatives)
	assert.Equal(t, types.SourceManual, got.Source)
}

func TestBackend_LoadMissingKey(t *testing.T) {
	b := newTestBackend(t)
	assert.Nil(t, b.Load(context.Background(), "absent"))
}

func TestBackend_OverwriteKeepsLatest(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	first := testRecord()
	require.True(t, b.Save(ctx, "notion", first))

	second := testRecord()
	second.SearchCount = 7
	require.True(t, b.Save(ctx, "notion", second))

	got := b.Load(ctx, "notion")
	require.NotNil(t, got)
	assert.Equal(t, 7, got.SearchCount)
}

func TestBackend_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.BadgerBackendConfig{Directory: dir}

	b, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.True(t, b.Save(context.Background(), "slack", testRecord()))
	require.NoError(t, b.Close())

	reopened, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	assert.NotNil(t, reopened.Load(context.Background(), "slack"))
}

func TestBackend_CanceledContext(t *testing.T) {
	b := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, b.Save(ctx, "linear", testRecord()))
	assert.Nil(t, b.Load(ctx, "linear"))
}
