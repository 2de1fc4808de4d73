// Package http serves the web UI and the chart data API.
//
// Every handler resolves the request owner from the session cookie and runs
// against the matching store: authenticated owners hit the SQLite-backed
// service, anonymous requests hit the local file scope. The handler code path
// is the same either way.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// snapshotTimeout bounds store reads so partials never hang the page.
const snapshotTimeout = 7 * time.Second

type Server struct {
	http.Server

	templates *template.Template
	logger    *log.Logger

	sessions *auth.Manager
	authSvc  *services.TransactionService
	localSvc *services.TransactionService

	// Per-owner record snapshots. All aggregates derive from one cached
	// list, so a write invalidates exactly one owner prefix.
	recordsCache *cache.LRUCache[[]core.Transaction]

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   appMetrics
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

type appMetrics struct {
	totalTransactions int64
	cacheHits         int64
	cacheMisses       int64
	uptime            time.Time
}

// NewServer configures routes, middleware, and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, sessions *auth.Manager, authSvc, localSvc *services.TransactionService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		logger:           logger.WithComponent(log.ComponentHTTP),
		sessions:         sessions,
		authSvc:          authSvc,
		localSvc:         localSvc,
		recordsCache:     cache.NewLRUCache[[]core.Transaction](200, 5*time.Minute),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		appMetrics:       appMetrics{uptime: time.Now()},
		cacheManager:     cache.NewManager(),
	}

	s.cacheManager.Register(s.recordsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/income", s.handleIncomePage)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/transactions", s.handleTransactions)

	// UI partials
	mux.HandleFunc("/ui/summary", s.handleSummaryCards)
	mux.HandleFunc("/ui/history", s.handleHistory)

	// Chart data API
	mux.HandleFunc("/api/chart/summary", s.handleChartSummary)
	mux.HandleFunc("/api/chart/overview", s.handleChartOverview)
	mux.HandleFunc("/api/chart/comparison", s.handleChartComparison)
	mux.HandleFunc("/api/chart/activity", s.handleChartActivity)
	mux.HandleFunc("/api/chart/income-trend", s.handleChartIncomeTrend)

	// Operational endpoints
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// The context logger goes in first so the trace middleware and every
	// handler log through it; the request ID is stamped onto it once the
	// trace middleware has generated one.
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	requestIDs := log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})
	s.Server.Handler = log.Middleware(s.logger)(
		s.traceMiddleware.Middleware(
			requestIDs(
				headers.Middleware(
					sessions.Middleware(
						s.withWriteRateLimit(mux))))))

	return s
}

// withWriteRateLimit applies per-IP rate limiting to mutating requests and
// flags suspicious ones. Reads pass through untouched.
func (s *Server) withWriteRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request detected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.securityDetector.ExtractClientIP(r))
		}

		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			clientIP := s.securityDetector.ExtractClientIP(r)
			if !s.rateLimiter.Allow(clientIP) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// serviceFor routes a request owner to its store. An empty owner is the
// anonymous local scope.
func (s *Server) serviceFor(owner string) *services.TransactionService {
	if owner == "" {
		return s.localSvc
	}
	return s.authSvc
}

func snapshotKey(owner string) string {
	if owner == "" {
		return "records:anon"
	}
	return "records:" + owner
}

// snapshot returns the owner's full record list, newest first. Results are
// cached until the next write by the same owner.
func (s *Server) snapshot(ctx context.Context, owner string) ([]core.Transaction, error) {
	key := snapshotKey(owner)

	if records, found := s.recordsCache.Get(key); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		// Return a copy to prevent external mutation
		result := make([]core.Transaction, len(records))
		copy(result, records)
		return result, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	cctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()
	records, err := s.serviceFor(owner).List(cctx, owner)
	if err != nil {
		return nil, err
	}

	s.recordsCache.Set(key, records)
	s.logger.DebugContext(ctx, "Record snapshot cached",
		log.FieldOwner, owner,
		"count", len(records))
	return records, nil
}

// invalidateSnapshot drops every cached aggregate of one owner after a write.
func (s *Server) invalidateSnapshot(owner string) {
	s.recordsCache.DeletePrefix(snapshotKey(owner))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}

		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
