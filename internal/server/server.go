// Package server exposes the verifier as an HTTP health endpoint for orchestrators
// and monitoring.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/koustreak/dbverify/internal/filestore"
	"github.com/koustreak/dbverify/internal/logger"
	"github.com/koustreak/dbverify/internal/verifier"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// Runner performs one verification.
type Runner interface {
	Run(ctx context.Context) (*verifier.Report, error)
}

// Archiver stores a finished report.
type Archiver interface {
	Archive(ctx context.Context, r *verifier.Report) (*filestore.ObjectInfo, error)
}

// Options configures the server.
type Options struct {
	Addr string

	// RateLimit and Burst bound how often /verify may hit the database,
	// across all clients.
	RateLimit float64
	Burst     int

	CORSOrigins []string

	// Archiver is optional.
	Archiver Archiver
}

// Server is the HTTP health endpoint.
type Server struct {
	runner   Runner
	archiver Archiver
	limiter  *rate.Limiter
	metrics  *Metrics
	log      *logger.Logger
	router   chi.Router
	addr     string
}

// New builds the router for runner.
func New(runner Runner, opts Options, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		runner:   runner,
		archiver: opts.Archiver,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		metrics:  NewMetrics(),
		log:      log,
		addr:     opts.Addr,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/verify", s.handleVerify)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the collectors updated by /verify.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoWith("server listening", map[string]interface{}{"addr": s.addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "rate limit exceeded, try again later",
		})
		return
	}

	report, err := s.runner.Run(r.Context())
	s.metrics.Observe(report)

	if s.archiver != nil {
		if _, aerr := s.archiver.Archive(r.Context(), report); aerr != nil {
			logger.FromContext(r.Context()).WarnWith("failed to archive report", aerr, map[string]interface{}{"run_id": report.ID})
		}
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report.Summary())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
