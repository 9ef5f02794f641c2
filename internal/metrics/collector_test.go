package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/altseek/altseek/internal/config"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(config.MonitoringConfig{}, zaptest.NewLogger(t))
}

func TestCollector_ObserveGet(t *testing.T) {
	c := newTestCollector(t)

	c.ObserveGet("single-level", true, 2*time.Millisecond)
	c.ObserveGet("single-level", true, time.Millisecond)
	c.ObserveGet("single-level", false, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.hits.WithLabelValues("single-level")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.misses.WithLabelValues("single-level")))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.requests.WithLabelValues("single-level", "get")))
}

func TestCollector_ObserveSetAndErrors(t *testing.T) {
	c := newTestCollector(t)

	c.ObserveSet("hybrid", time.Millisecond)
	c.RecordError("hybrid")
	c.RecordError("hybrid")

	assert.Equal(t, float64(1), testutil.ToFloat64(c.requests.WithLabelValues("hybrid", "set")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.errors.WithLabelValues("hybrid")))
}

func TestCollector_Gauges(t *testing.T) {
	c := newTestCollector(t)

	c.SetItemCount(42)
	c.SetTierItems("hot", 7)
	c.SetTierItems("hot", 5)

	assert.Equal(t, float64(42), testutil.ToFloat64(c.items))
	assert.Equal(t, float64(5), testutil.ToFloat64(c.tierItems.WithLabelValues("hot")))
}

func TestCollector_RegistryGathers(t *testing.T) {
	c := newTestCollector(t)
	c.ObserveGet("tiered", true, time.Millisecond)

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
