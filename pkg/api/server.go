// Package api provides the HTTP operational surface of the cache
// subsystem: statistics, strategy recommendations and the admin
// cleanup and export actions.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/orchestrator"
)

// ServerConfig configures the admin API server.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DefaultServerConfig returns the default admin server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:      "localhost:8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server exposes the orchestrator over HTTP for operators.
type Server struct {
	httpServer *http.Server
	orch       *orchestrator.Orchestrator
	logger     *zap.Logger
}

// NewServer creates the admin API server.
func NewServer(cfg ServerConfig, orch *orchestrator.Orchestrator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		orch:   orch,
		logger: logger.Named("api"),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler builds the route table. Exposed separately so tests can
// drive it without a listening socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/stats/strategy", s.handleStrategyStats)
	mux.HandleFunc("/recommendation", s.handleRecommendation)
	mux.HandleFunc("/admin/cleanup", s.handleCleanup)
	mux.HandleFunc("/admin/export-popular", s.handleExportPopular)
	return s.loggingMiddleware(mux)
}

// StartBackground serves in a goroutine until Shutdown.
func (s *Server) StartBackground() {
	go func() {
		s.logger.Info("admin api listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("admin api stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"strategy": s.orch.ActiveStrategy(),
		"backends": s.orch.BackendNames(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, s.orch.ComprehensiveStats())
}

func (s *Server) handleStrategyStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategy": s.orch.ActiveStrategy(),
		"detail":   s.orch.StrategyStats(),
	})
}

// handleRecommendation maps an expected item count to the advised
// strategy. Without an items parameter it uses the live population.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	items := s.orch.ItemCount()
	if raw := r.URL.Query().Get("items"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.respondError(w, http.StatusBadRequest, "items must be a non-negative integer")
			return
		}
		items = parsed
	}
	s.respondJSON(w, http.StatusOK, orchestrator.RecommendStorage(items))
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.orch.Cleanup(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "completed",
		"remaining_items": s.orch.ItemCount(),
	})
}

func (s *Server) handleExportPopular(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	exported := s.orch.ExportPopular(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "completed",
		"exported": exported,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, code int, msg string) {
	s.respondJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
