package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finledger/internal/backend"
	"finledger/internal/cache"
	applog "finledger/internal/log"
	"finledger/internal/middleware/ratelimit"
	"finledger/internal/middleware/security"
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
	SeedFilePath       string
	// TrustedProxies extends the detector's private-network defaults.
	TrustedProxies []string

	Logger *applog.Logger
	// Cache, when set, sweeps expired dashboard entries.
	Cache *cache.Manager
	// Now is the dashboard clock.
	Now func() time.Time
}

type Server struct {
	http.Server
	app        *backend.Backend
	logger     *applog.Logger
	structured *applog.StructuredLogger
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	dashboard  *dashboardCache
	seedPath   string
	now        func() time.Time

	unsubscribe  func()
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server over app.
func NewServer(app *backend.Backend, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		app:        app,
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:   security.NewDetector(),
		dashboard:  newDashboardCache(opts.CacheSize, opts.CacheTTL),
		seedPath:   opts.SeedFilePath,
		now:        opts.Now,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err.Error())
		}
	}
	s.dashboard.register(opts.Cache)
	s.unsubscribe = app.Bus.Subscribe(s.dashboard.onLedgerEvent)
	app.Settings.OnChange(s.dashboard.onSettingsChange)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleSaveTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/budget", s.handleBudget)
	mux.HandleFunc("GET /api/chart/last7d", s.handleLastSevenDays)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /api/settings/reset", s.handleResetSettings)

	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)
	mux.HandleFunc("GET /api/currencies/{code}/rate", s.handleCurrencyRate)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("POST /api/import/default", s.handleImportDefault)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ClientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(handler)
	handler = s.withAccessLog(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = applog.RequestIDMiddleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// withAccessLog records status and duration of every request.
func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.structured.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), s.detector.ClientIP(r))
	})
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type readyResponse struct {
	Status             string            `json:"status"`
	RateLimit          ratelimit.Metrics `json:"rateLimit"`
	SuspiciousRequests int64             `json:"suspiciousRequests"`
}

// handleReady checks that the blob store answers and reports limiter and
// detector counters.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.app.Blobs.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(readyResponse{
		Status:             "ready",
		RateLimit:          s.limiter.GetMetrics(),
		SuspiciousRequests: s.detector.SuspiciousCount(),
	}).Write(w)
}
