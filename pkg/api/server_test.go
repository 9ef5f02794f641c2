package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/altseek/altseek/internal/config"
	"github.com/altseek/altseek/internal/orchestrator"
	"github.com/altseek/altseek/internal/storage"
	"github.com/altseek/altseek/pkg/types"
)

func newTestServer(t *testing.T) (*Server, *orchestrator.Orchestrator) {
	t.Helper()
	cfg := config.DefaultConfiguration()
	cfg.Global.Environment = config.EnvProduction
	cfg.Storage.DurableWrites = false

	logger := zaptest.NewLogger(t)
	manager := storage.NewManager(logger, nil, nil)
	orch := orchestrator.New(context.Background(), cfg, manager, nil, nil, logger)
	return NewServer(DefaultServerConfig(), orch, logger), orch
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "single-level", body["strategy"])
}

func TestServer_Stats(t *testing.T) {
	s, orch := newTestServer(t)
	ctx := context.Background()

	orch.Set(ctx, "slack", []types.Alternative{{Name: "Zulip"}}, types.SourceAI)
	orch.Get(ctx, "slack")

	rec := doRequest(t, s, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats types.OrchestratorStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "single-level", stats.CurrentStrategy)
	assert.Equal(t, 100, stats.HitRate)
	assert.Equal(t, 1, stats.TotalItems)
}

func TestServer_StrategyStats(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/stats/strategy")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "single-level", body["strategy"])
	assert.Contains(t, body, "detail")
}

func TestServer_Recommendation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/recommendation?items=150000")
	require.Equal(t, http.StatusOK, rec.Code)

	var body orchestrator.StorageRecommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "hybrid", body.Strategy)
}

func TestServer_RecommendationRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/recommendation?items=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CleanupAction(t *testing.T) {
	s, orch := newTestServer(t)

	orch.Set(context.Background(), "slack", []types.Alternative{{Name: "Zulip"}}, types.SourceAI)

	rec := doRequest(t, s, http.MethodPost, "/admin/cleanup")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, float64(1), body["remaining_items"])
}

func TestServer_ExportAction(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/admin/export-popular")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["exported"])
}

func TestServer_MethodGuards(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(t, s, http.MethodPost, "/stats").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(t, s, http.MethodGet, "/admin/cleanup").Code)
}
