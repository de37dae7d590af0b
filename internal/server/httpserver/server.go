// Package httpserver serves the documentation browser: module pages, the
// module index, raw source, plus health and metrics endpoints.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/docbrowse/internal/allowlist"
	"git.home.luguber.info/inful/docbrowse/internal/cache"
	"git.home.luguber.info/inful/docbrowse/internal/config"
	"git.home.luguber.info/inful/docbrowse/internal/events"
	"git.home.luguber.info/inful/docbrowse/internal/locator"
	"git.home.luguber.info/inful/docbrowse/internal/metrics"
	"git.home.luguber.info/inful/docbrowse/internal/modpath"
	"git.home.luguber.info/inful/docbrowse/internal/render"
	smw "git.home.luguber.info/inful/docbrowse/internal/server/middleware"
	"git.home.luguber.info/inful/docbrowse/internal/site"
)

// Options carries the resolved collaborators of the server. Everything is
// resolved at setup; nothing is looked up by name per request.
type Options struct {
	Locator   *locator.Locator
	Converter render.Converter
	Site      *site.Renderer
	Allow     *allowlist.List
	// DefaultModule, when set, is where the bare mount path redirects.
	DefaultModule modpath.Identifier
	// Cache may be nil (caching disabled).
	Cache *cache.Store
	// Recorder defaults to the no-op recorder.
	Recorder metrics.Recorder
	// Events may be nil (publishing disabled).
	Events *events.Publisher
	// Registry receives the process metrics for the /metrics endpoint. A
	// fresh registry is created when nil.
	Registry *prometheus.Registry
}

// Server is the docbrowse HTTP server.
type Server struct {
	cfg    *config.Config
	opts   Options
	srv    *http.Server
	mchain func(http.Handler) http.Handler
}

// New constructs the server wiring.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	return &Server{
		cfg:    cfg,
		opts:   opts,
		mchain: smw.Chain(slog.Default()),
	}
}

// Handler builds the complete route table. Exposed separately from Start so
// the browser can be mounted into a larger application and exercised in
// tests without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth) // Kubernetes-style alias
	mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))

	if !s.cfg.Server.DisableBrowser {
		mount := s.cfg.Server.Mount
		mux.Handle(mount, s.mchain(http.HandlerFunc(s.handleIndex)))
		mux.Handle(mount+"/", s.mchain(http.HandlerFunc(s.handleModule)))
	}
	return mux
}

// Start binds the configured address and serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.cfg.Server.Addr, err)
	}

	s.srv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("docs server error", "error", err)
		}
	}()
	slog.Info("HTTP server started", slog.String("addr", s.cfg.Server.Addr), slog.String("mount", s.cfg.Server.Mount))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintln(w, `{"status":"ok"}`)
}

// localURL builds the browsing URL for a module under the configured mount.
func (s *Server) localURL(id modpath.Identifier) string {
	return s.cfg.Server.Mount + "/" + id.Path()
}

// externalURL builds the reference-site URL for a module.
func (s *Server) externalURL(id modpath.Identifier) string {
	return s.cfg.Docs.ExternalBaseURL + id.Canonical()
}
