// Package server exposes the dashboard over HTTP: an HTML page with charts,
// a JSON API, a health check and Prometheus metrics.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/project-tktt/job-dashboard/internal/domain"
	"github.com/project-tktt/job-dashboard/internal/logger"
	"github.com/project-tktt/job-dashboard/internal/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

// Runner computes a dashboard on behalf of a session
type Runner interface {
	Run(ctx context.Context, session, query string) (*domain.Dashboard, error)
}

// Config holds server settings
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// DefaultQuery fills the search box on first load
	DefaultQuery string
	// Region names the area the popular jobs table covers. Empty means the
	// table follows the first listing's location.
	Region string
	// Quota, when set, reports the shared budget left for QuotaKey on /healthz
	Quota    QuotaReporter
	QuotaKey string
}

// QuotaReporter reports the requests left in the current quota window
type QuotaReporter interface {
	Remaining(ctx context.Context, key string) (int, error)
}

// Server is the dashboard HTTP server
type Server struct {
	cfg     Config
	runner  Runner
	metrics *telemetry.Metrics
	log     logger.Logger
	router  *gin.Engine
}

// New builds the router. metrics may be nil, in which case /metrics is not served.
func New(cfg Config, runner Runner, metrics *telemetry.Metrics, log logger.Logger) (*Server, error) {
	if cfg.DefaultQuery == "" {
		cfg.DefaultQuery = "data scientist"
	}
	if log == nil {
		log = logger.NewNop()
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		runner:  runner,
		metrics: metrics,
		log:     log.With(logger.String("component", "server")),
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(requestIDMiddleware(), recoveryMiddleware(s.log), loggerMiddleware(s.log))
	if metrics != nil {
		router.Use(metricsMiddleware(metrics))
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.GET("/", s.handleIndex)
	router.GET("/api/dashboard", s.handleDashboard)
	router.GET("/healthz", s.handleHealth)

	s.router = router
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", logger.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
