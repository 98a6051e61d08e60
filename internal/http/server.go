// Package http exposes the insight computations and record CRUD as a
// JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Raajp10/ai-expense-tracker/internal/cache"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/anomaly"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/features"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/query"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/segment"
	"github.com/Raajp10/ai-expense-tracker/internal/log"
	"github.com/Raajp10/ai-expense-tracker/internal/services"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
)

const (
	plotCacheSize = 256
	plotCacheTTL  = 5 * time.Minute
)

// Deps carries everything the server serves. Service handles writes;
// reads go straight to the repository and the insight components.
type Deps struct {
	Store      *storage.SQLiteRepository
	Service    *services.TransactionService
	Detector   *anomaly.Detector
	Builder    *features.Builder
	Segmenter  *segment.Segmenter
	Router     *query.Router
	ZThreshold float64
	Caches     *cache.Manager
}

type Server struct {
	httpServer *http.Server
	store      *storage.SQLiteRepository
	service    *services.TransactionService
	detector   *anomaly.Detector
	builder    *features.Builder
	segmenter  *segment.Segmenter
	router     *query.Router
	plotCache  *cache.LRUCache[anomaly.PlotSeries]
	threshold  float64
	logger     *log.Logger
	started    time.Time
}

func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	threshold := deps.ZThreshold
	if threshold <= 0 {
		threshold = anomaly.DefaultThreshold
	}

	s := &Server{
		store:     deps.Store,
		service:   deps.Service,
		detector:  deps.Detector,
		builder:   deps.Builder,
		segmenter: deps.Segmenter,
		router:    deps.Router,
		plotCache: cache.NewLRUCache[anomaly.PlotSeries](plotCacheSize, plotCacheTTL),
		threshold: threshold,
		logger:    logger.WithComponent(log.ComponentHTTP),
		started:   time.Now(),
	}
	if deps.Caches != nil {
		deps.Caches.Register(s.plotCache)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /budgets", s.handleCreateBudget)

	mux.HandleFunc("GET /users/{id}/anomalies/daily", s.handleDailyAnomalies)
	mux.HandleFunc("GET /users/{id}/anomalies/transactions", s.handleTransactionAnomalies)
	mux.HandleFunc("GET /users/{id}/anomalies/plot", s.handleAnomalyPlot)
	mux.HandleFunc("GET /users/{id}/anomalies/explain", s.handleExplainDate)
	mux.HandleFunc("GET /users/{id}/segment", s.handleSegment)
	mux.HandleFunc("GET /segments/global", s.handleGlobalSegments)
	mux.HandleFunc("GET /users/{id}/summary", s.handleSummary)
	mux.HandleFunc("POST /users/{id}/query", s.handleQuery)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           log.Middleware(logger)(securityHeaders(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
