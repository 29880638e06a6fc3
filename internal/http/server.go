package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"powerpulse/internal/analytics"
	"powerpulse/internal/core"
	"powerpulse/internal/log"
	"powerpulse/internal/metrics"
	"powerpulse/internal/model"
	"powerpulse/internal/services"
	appweb "powerpulse/web"
)

// Dashboard serves month selections and reports.
type Dashboard interface {
	Months(ctx context.Context) ([]int, error)
	Resolve(ctx context.Context, requested int) (services.Selection, []int, error)
	Report(ctx context.Context, sel services.Selection) (analytics.Report, error)
}

// Predictions runs the regression model.
type Predictions interface {
	Predict(ctx context.Context, fv core.FeatureVector) (model.Prediction, error)
	ModelInfo() (model.Info, error)
}

// Options configures NewServer.
type Options struct {
	Addr        string
	Dashboard   Dashboard
	Predictions Predictions
	// Ready reports whether the dataset is loaded. Nil means always ready.
	Ready   func() bool
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

type Server struct {
	http.Server
	templates   *template.Template
	dashboard   Dashboard
	predictions Predictions
	ready       func() bool
	metrics     *metrics.Metrics
	logger      *log.Logger
	events      *log.StructuredLogger
	rateLimiter *rateLimiter
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ready := opts.Ready
	if ready == nil {
		ready = func() bool { return true }
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		templates:   t,
		dashboard:   opts.Dashboard,
		predictions: opts.Predictions,
		ready:       ready,
		metrics:     opts.Metrics,
		logger:      logger.WithComponent(log.ComponentHTTP),
		events:      log.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(rateLimitRequests, rateLimitWindow),
		started:     time.Now(),
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.withMiddleware("summary", s.handleSummary))
	mux.HandleFunc("/dashboard", s.withMiddleware("dashboard", s.handleDashboard))
	mux.HandleFunc("/predict", s.withMiddleware("predict", s.handlePredict))
	// UI partials
	mux.HandleFunc("/ui/dashboard", s.withMiddleware("ui_dashboard", s.handleDashboardPartial))
	// JSON API
	mux.HandleFunc("/api/months", s.withMiddleware("api_months", s.handleAPIMonths))
	mux.HandleFunc("/api/report", s.withMiddleware("api_report", s.handleAPIReport))
	mux.HandleFunc("/api/predict", s.withMiddleware("api_predict", s.handleAPIPredict))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", s.metrics.Handler())

	return s, nil
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request tracing, rate limiting of POSTs, security
// headers, request logging and metrics. route labels the metrics.
func (s *Server) withMiddleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With(log.FieldRequestID, requestID, log.FieldClientIP, ip)
		ctx := log.IntoContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		s.events.LogHTTPStart(ctx, r, ip)

		if reason := suspicion(r); reason != "" {
			s.metrics.SuspiciousRequest()
			reqLogger.WithComponent(log.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				"reason", reason,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		for name, value := range securityHeaders {
			w.Header().Set(name, value)
		}
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if r.Method == http.MethodPost && !s.rateLimiter.allow(ip) {
			s.metrics.RateLimited(route)
			reqLogger.WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
				log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			http.Error(rw, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		} else {
			next(rw, r)
		}

		elapsed := time.Since(start)
		s.metrics.HTTPRequest(route, r.Method, rw.statusCode, elapsed)
		s.events.LogHTTPEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), ip)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
