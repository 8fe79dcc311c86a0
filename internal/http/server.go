// Package http exposes the expense and expense category use cases as a JSON
// API behind HTTP Basic authentication.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"cashly/internal/auth"
	"cashly/internal/cache"
	"cashly/internal/core"
	"cashly/internal/log"
	"cashly/internal/middleware/ratelimit"
	"cashly/internal/middleware/security"
	"cashly/internal/middleware/trace"
	"cashly/internal/usecase"
)

const (
	readyTimeout         = 2 * time.Second
	cacheCleanupInterval = 10 * time.Minute
)

// Config holds the server settings taken from the application config.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	AuthCacheTTL       time.Duration
	// TrustedProxies lists CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
}

type Server struct {
	http.Server

	store  core.Store
	auth   Authenticator
	logger *log.Logger

	limiter   *ratelimit.Limiter
	detector  *security.Detector
	trace     *trace.Middleware
	caches    *cache.Manager
	authCache *cache.LRUCache[core.User]
	started   time.Time

	createCategory  *usecase.CreateExpenseCategory
	getCategory     *usecase.GetExpenseCategory
	listCategories  *usecase.GetAllExpenseCategories
	updateCategory  *usecase.UpdateExpenseCategory
	deleteCategory  *usecase.DeleteExpenseCategory
	createExpense   *usecase.CreateExpense
	getExpense      *usecase.GetExpense
	listExpenses    *usecase.GetAllExpenses
	updateExpense   *usecase.UpdateExpense
	deleteExpense   *usecase.DeleteExpense
	shutdownOnce    sync.Once
	cleanupStopOnce sync.Once
}

// NewServer wires the use cases over store and returns a ready-to-run
// server. events may be nil.
func NewServer(cfg Config, store core.Store, events usecase.EventPublisher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	authenticator := auth.NewAuthenticator(store, cfg.AuthCacheTTL)
	caches := cache.NewManager()
	caches.Register(authenticator.Cache())
	caches.StartCleanup(context.Background(), cacheCleanupInterval)

	s := &Server{
		store:     store,
		auth:      authenticator,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		caches:    caches,
		authCache: authenticator.Cache(),
		started:   time.Now(),

		createCategory: usecase.NewCreateExpenseCategory(store, events),
		getCategory:    usecase.NewGetExpenseCategory(store),
		listCategories: usecase.NewGetAllExpenseCategories(store),
		updateCategory: usecase.NewUpdateExpenseCategory(store, events),
		deleteCategory: usecase.NewDeleteExpenseCategory(store, events),
		createExpense:  usecase.NewCreateExpense(store, events),
		getExpense:     usecase.NewGetExpense(store),
		listExpenses:   usecase.NewGetAllExpenses(store),
		updateExpense:  usecase.NewUpdateExpense(store, events),
		deleteExpense:  usecase.NewDeleteExpense(store, events),
	}

	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.trace = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /expense-categories/{$}", s.handleCreateCategory)
	api.HandleFunc("GET /expense-categories/{$}", s.handleListCategories)
	api.HandleFunc("GET /expense-categories/{id}/{$}", s.handleGetCategory)
	api.HandleFunc("PUT /expense-categories/{id}/{$}", s.handleUpdateCategory)
	api.HandleFunc("DELETE /expense-categories/{id}/{$}", s.handleDeleteCategory)

	api.HandleFunc("POST /expenses/{$}", s.handleCreateExpense)
	api.HandleFunc("GET /expenses/{$}", s.handleListExpenses)
	api.HandleFunc("GET /expenses/{id}/{$}", s.handleGetExpense)
	api.HandleFunc("PUT /expenses/{id}/{$}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /expenses/{id}/{$}", s.handleDeleteExpense)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("/expense-categories/", limited(s.requireUser(api)))
	mux.Handle("/expenses/", limited(s.requireUser(api)))

	var h http.Handler = mux
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.trace.Middleware(h)
	return h
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentStorage).WarnContext(r.Context(), "Readiness check failed",
			log.NewFields().WithError(err, log.ErrorTypeInternal).ToSlice()...)
		writeMessage(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleMetrics reports request, security and cache counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.trace.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)
	writeMetric(w, "security_suspicious_requests_total", "counter", "Requests flagged as suspicious", securityMetrics.SuspiciousRequests)
	writeMetric(w, "security_blocked_requests_total", "counter", "Requests refused for their method", securityMetrics.BlockedRequests)
	writeMetric(w, "rate_limit_hits_total", "counter", "Write requests refused by the rate limiter", rateLimitMetrics.TotalHits)
	writeMetric(w, "rate_limit_active_clients", "gauge", "Clients tracked by the rate limiter", rateLimitMetrics.ClientCount)
	writeMetric(w, "auth_cache_entries", "gauge", "Verified credentials held in the auth cache", int64(s.authCache.Size()))
	writeMetric(w, "uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.started).Seconds()))
}

func writeMetric(w io.Writer, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}

// StopBackground ends the limiter and cache cleanup goroutines.
func (s *Server) StopBackground() {
	s.cleanupStopOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.StopBackground()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
