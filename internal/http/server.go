// Package http exposes the ledger and its dashboard aggregations as a JSON
// API, plus PNG chart endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finledger/internal/cache"
	"finledger/internal/charts"
	"finledger/internal/core"
)

// Ledger is the service surface the handlers need.
type Ledger interface {
	AddTransaction(ctx context.Context, tx core.Transaction) (string, error)
	Snapshot(ctx context.Context) ([]core.Transaction, error)
}

type Server struct {
	http.Server
	ledger  Ledger
	charts  *charts.Generator
	limiter *writeLimiter
	metrics *securityMetrics

	// Dashboard reads share one cached snapshot; chart PNGs are cached per
	// query. Both are flushed on every write.
	snapshotCache *cache.TTLCache[[]core.Transaction]
	chartCache    *cache.TTLCache[[]byte]
	janitor       *cache.Janitor

	// now anchors period resolution; overridden in tests
	now func() time.Time

	shutdownOnce sync.Once
}

// defaultWriteLimit bounds POSTs per client IP per minute when the
// configuration does not say otherwise.
const defaultWriteLimit = 60

// NewServer configures routes and caches, returning a ready-to-run server.
// writeLimit caps mutating requests per client IP per minute; 0 selects the
// default.
func NewServer(addr string, ledger Ledger, writeLimit int) *Server {
	if writeLimit <= 0 {
		writeLimit = defaultWriteLimit
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:        ledger,
		charts:        charts.NewGenerator(),
		limiter:       newWriteLimiter(writeLimit, time.Minute),
		metrics:       &securityMetrics{},
		snapshotCache: cache.New[[]core.Transaction](4, time.Minute),
		chartCache:    cache.New[[]byte](32, 5*time.Minute),
		now:           time.Now,
	}

	s.janitor = cache.NewJanitor(s.snapshotCache, s.chartCache)
	s.janitor.Start(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("/dashboard/totals", s.withMiddleware(s.handleTotals))
	mux.HandleFunc("/dashboard/cashflow", s.withMiddleware(s.handleCashflow))
	mux.HandleFunc("/dashboard/categories", s.withMiddleware(s.handleCategories))
	mux.HandleFunc("/dashboard/extremes", s.withMiddleware(s.handleExtremes))
	mux.HandleFunc("/dashboard/recent", s.withMiddleware(s.handleRecent))
	mux.HandleFunc("/charts/cashflow.png", s.withMiddleware(s.handleCashflowChart))
	mux.HandleFunc("/charts/categories.png", s.withMiddleware(s.handleCategoriesChart))

	return s
}

// Shutdown stops the cleanup goroutines then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.janitor != nil {
			s.janitor.Stop()
		}
		if s.limiter != nil {
			s.limiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r, s.metrics)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request pattern",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.String())
		}

		// Rate limit writes only; dashboard reads are cache-backed
		if r.Method == http.MethodPost && !s.limiter.allow(clientIP) {
			atomic.AddInt64(&s.metrics.rateLimitHits, 1)
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := s.snapshot(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// snapshot returns the ledger contents, served from cache when fresh.
func (s *Server) snapshot(ctx context.Context) ([]core.Transaction, error) {
	const key = "snapshot"

	if txs, found := s.snapshotCache.Get(key); found {
		slog.DebugContext(ctx, "Snapshot cache hit", "count", len(txs))
		out := make([]core.Transaction, len(txs))
		copy(out, txs)
		return out, nil
	}

	txs, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.snapshotCache.Set(key, txs)
	slog.DebugContext(ctx, "Snapshot cached", "count", len(txs))
	return txs, nil
}

// invalidateCaches drops every cached read after a write.
func (s *Server) invalidateCaches() {
	s.snapshotCache.InvalidateAll()
	s.chartCache.InvalidateAll()
}

// today resolves the period anchor in the server's local time.
func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
