// Package http exposes the JSON API: budget queries, category overrides,
// merchant rules, share configuration and report export.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"centsplit/internal/cache"
	"centsplit/internal/core"
	"centsplit/internal/middleware/ratelimit"
	"centsplit/internal/middleware/security"
	"centsplit/internal/middleware/trace"
	"centsplit/internal/services"
	"centsplit/internal/storage"
)

type Server struct {
	http.Server

	storage   *storage.SQLiteRepository
	txService *services.TransactionService
	budget    *services.BudgetService

	limiter      *ratelimit.Limiter
	summaryCache *cache.LRU[core.ShareSummary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(
	addr string,
	repo *storage.SQLiteRepository,
	txService *services.TransactionService,
	budget *services.BudgetService,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		storage:      repo,
		txService:    txService,
		budget:       budget,
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		summaryCache: cache.NewLRU[core.ShareSummary](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)

	mux.HandleFunc("POST /overrides", s.handleSetOverride)
	mux.HandleFunc("DELETE /overrides/{transaction_id}", s.handleDeleteOverride)

	mux.HandleFunc("POST /rules", s.handleCreateRule)
	mux.HandleFunc("DELETE /rules/{id}", s.handleDeleteRule)

	mux.HandleFunc("PUT /shares/categories", s.handleSetCategoryShare)
	mux.HandleFunc("PUT /shares/transactions", s.handleSetTransactionShare)

	mux.HandleFunc("GET /budget/summary", s.handleBudgetSummary)
	mux.HandleFunc("GET /budget/category", s.handleBudgetCategory)
	mux.HandleFunc("GET /budget/overview", s.handleBudgetOverview)
	mux.HandleFunc("GET /budget/split", s.handleBudgetSplit)

	mux.HandleFunc("POST /reports/export", s.handleExportReport)

	extractor := security.NewIPExtractor()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(extractor.ExtractClientIP)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(extractor.ExtractClientIP)(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the full middleware chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

// Shutdown stops the HTTP server and background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Storage is the only hard dependency; AMQP and the provider degrade
	// gracefully.
	if _, err := s.storage.LoadShareConfig(r.Context()); err != nil {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateSummaries() {
	// Share and category rules affect any cached month, so drop them all.
	s.summaryCache.Purge()
}
