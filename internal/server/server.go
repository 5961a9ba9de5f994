// Package server serves the public read-only charts and the token API.
//
// # Routes
//
// Public pages live under /public/{owner} and are only served for owners
// whose "public" setting is on. They are rate limited per client address.
//
// The API under /api authenticates with "Authorization: Bearer <token>"
// and acts on the token's owner: entries, summaries, the interactive chart
// and a server-held timer per owner.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/shared"
	"github.com/sadopc/timepie/internal/store"
	"github.com/sadopc/timepie/internal/timer"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the patterns it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers and applies middleware.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler, mw ...Middleware)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

const shutdownTimeout = 5 * time.Second

// Server wires the store into the router and runs the HTTP listener.
type Server struct {
	cfg    shared.ServerConfig
	store  *store.Store
	logger *log.Logger
	router *BasicRouter
	timers *Timers
}

// New builds a server for cfg. clock may be nil.
func New(s *store.Store, cfg *shared.Config, logger *log.Logger, clock timer.Clock) *Server {
	srv := &Server{
		cfg:    cfg.Server,
		store:  s,
		logger: logger,
		router: NewBasicRouter(),
		timers: NewTimers(s, clock),
	}

	size := cfg.Chart.Size
	if size <= 0 {
		size = defaultChartSize
	}
	charts := chartParams{defaultSize: size, margin: cfg.Chart.Margin}

	srv.router.Use(Recover(logger), Logging(logger))
	srv.router.Handler(healthHandler{})

	public := &publicHandler{store: s, logger: logger, charts: charts}
	limit := RateLimit(NewIPLimiter(cfg.Server.PublicRate, cfg.Server.PublicBurst))
	hover := RateLimit(NewIPLimiter(cfg.Server.HoverRate, cfg.Server.HoverBurst))
	srv.router.Handle("GET", "/public/{owner}", http.HandlerFunc(public.page), limit)
	srv.router.Handle("GET", "/public/{owner}/chart.png", http.HandlerFunc(public.chartPNG), limit)
	srv.router.Handle("GET", "/public/{owner}/hit", http.HandlerFunc(public.hit), hover)

	api := &apiHandler{store: s, logger: logger, charts: charts, timers: srv.timers}
	auth := BearerAuth(s)
	srv.router.Handle("GET", "/api/entries", http.HandlerFunc(api.listEntries), auth)
	srv.router.Handle("DELETE", "/api/entries/{id}", http.HandlerFunc(api.deleteEntry), auth)
	srv.router.Handle("GET", "/api/summary", http.HandlerFunc(api.summary), auth)
	srv.router.Handle("GET", "/api/chart.png", http.HandlerFunc(api.chartPNG), auth)
	srv.router.Handle("GET", "/api/chart/hit", http.HandlerFunc(api.hit), auth)
	srv.router.Handle("GET", "/api/timer", http.HandlerFunc(api.timerState), auth)
	srv.router.Handle("POST", "/api/timer/start", http.HandlerFunc(api.startTimer), auth)
	srv.router.Handle("POST", "/api/timer/stop", http.HandlerFunc(api.stopTimer), auth)

	return srv
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type healthHandler struct{}

func (healthHandler) Routes() []string { return []string{"GET /healthz"} }

func (healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

const (
	defaultChartSize = 480
	minChartSize     = 64
	maxChartSize     = 2048
)

type chartParams struct {
	defaultSize int
	margin      int
}

func (c chartParams) options(v chart.Variant, size int) chart.Options {
	return chart.Options{Variant: v, Size: size, Margin: c.margin}
}
