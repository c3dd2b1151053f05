package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/api"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	appweb "ledger/web"
)

// RecordService is what the handlers need from the record service.
type RecordService interface {
	Create(ctx context.Context, r core.Record) (core.Record, error)
	Update(ctx context.Context, r core.Record) error
	Delete(ctx context.Context, kind core.Kind, id int64) error
	MonthRecords(ctx context.Context, month core.Month) (expenses, incomes []core.Record, err error)
	ChartData(ctx context.Context, month core.Month) (core.ChartData, error)
	Ping(ctx context.Context) error
}

// Options tune the server. Zero values pick defaults.
type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	// Now is the clock used for "current month" defaults.
	Now func() time.Time
}

type Server struct {
	http.Server
	records   RecordService
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	logger    *applog.Logger
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, records RecordService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	limits := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector(logger)
	s := &Server{
		records:  records,
		limiter:  ratelimit.NewLimiter(limits),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		logger:   logger.WithComponent(applog.ComponentHTTP),
		now:      now,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(applog.Middleware(logger.WithComponent(applog.ComponentHTTP), trace.RequestIDFromRequest))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware)
	r.Use(s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).Warn("Rate limit exceeded",
			applog.FieldClientIP, detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	}, http.MethodPost, http.MethodPatch, http.MethodDelete))
	r.Use(middleware.Compress(5))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed)).Write(w)
	})

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		})
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleIndexCreate)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Post(api.PathAddRecord, s.handleAddRecord)
	r.Patch(api.PathEditRecord, s.handleEditRecord)
	r.Post(api.PathDeleteRecord, s.handleDeleteRecord)
	r.Get(api.PathChartData, s.handleChartData)
	r.Get(api.PathRecords, s.handleListRecords)
	r.Get(api.PathExport, s.handleExport)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.records.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).Warn("Readiness check failed", applog.FieldError, err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics reports request and protection counters in a
// Prometheus-like text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requests := s.tracer.GetMetrics()
	limits := s.limiter.GetMetrics()
	security := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", requests.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds %d\n\n", requests.AverageResponseTime)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", limits.TotalHits)

	fmt.Fprintf(w, "# HELP rate_limit_active_clients Clients currently tracked\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n\n", limits.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Requests flagged by the security detector\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n", security.SuspiciousRequests)
}
