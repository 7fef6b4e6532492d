package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verityhq/verdict/pkg/cache"
	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/receipt"
	"github.com/verityhq/verdict/pkg/results"
)

// Verifier is the engine surface the API serves.
type Verifier interface {
	Verify(ctx context.Context, req contracts.VerificationRequest) (*contracts.VerificationResult, error)
	GetVerificationStatus(verificationID string) (contracts.VerificationStatus, error)
	CancelVerification(verificationID string) bool
	RegisteredModules() []string
	ActiveVerifications() int
}

// ResultReader is the processor surface the API serves: finished results,
// cache operations, and processing metrics.
type ResultReader interface {
	GetResult(ctx context.Context, verificationID string) (*contracts.VerificationResult, error)
	CacheStats(ctx context.Context) (cache.Stats, error)
	InvalidateCache(ctx context.Context, key string) error
	ProcessingMetrics() results.Snapshot
}

// RecentLister lists recently persisted results, newest first.
type RecentLister interface {
	ListRecent(ctx context.Context, limit int) ([]*contracts.VerificationResult, error)
}

// Config wires the server's collaborators. Receipts, Recent and Limiter
// are optional.
type Config struct {
	Engine   Verifier
	Results  ResultReader
	Recent   RecentLister
	Receipts *receipt.Issuer
	Limiter  *RateLimiter
	Logger   *slog.Logger
}

// Server is the HTTP front of the verification pipeline.
type Server struct {
	engine   Verifier
	results  ResultReader
	recent   RecentLister
	receipts *receipt.Issuer
	limiter  *RateLimiter
	logger   *slog.Logger
}

// NewServer creates the API server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:   cfg.Engine,
		results:  cfg.Results,
		recent:   cfg.Recent,
		receipts: cfg.Receipts,
		limiter:  cfg.Limiter,
		logger:   logger.With("component", "api"),
	}
}

// Routes builds the router: the versioned API plus health and Prometheus
// endpoints.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.requestLogger)
	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "unknown endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteMethodNotAllowed(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/verify", s.handleVerify)
		r.Get("/verifications", s.handleRecent)
		r.Get("/verifications/{id}", s.handleResult)
		r.Get("/verifications/{id}/status", s.handleStatus)
		r.Post("/verifications/{id}/cancel", s.handleCancel)
		r.Get("/modules", s.handleModules)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Delete("/cache", s.handleCachePurge)
	})

	return r
}

// requestID stamps every response with an X-Request-ID, reusing the
// caller's when present.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", w.Header().Get("X-Request-ID"),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
