// Package web provides the HTTP API for the storefront and the admin tools.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/albaseet/catalog/internal/config"
	"github.com/albaseet/catalog/internal/core"
	"github.com/albaseet/catalog/internal/observability"
	"github.com/albaseet/catalog/internal/web/middleware"
)

const defaultShutdownTimeout = 30 * time.Second

// Server is the HTTP server for the catalog API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics *observability.Metrics
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance. metrics may be nil.
func NewServer(service *core.Service, cfg *config.Config, metrics *observability.Metrics) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: metrics,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(middleware.Secure(s.cfg.Security))
	s.router.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	if s.cfg.Rate.Enabled {
		s.router.Use(middleware.RateLimit(s.cfg.Rate.RequestsPerMinute, time.Minute))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Storefront
		r.Get("/categories", s.handleListCategories)
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(&s.cfg.Security))

			r.Post("/products", s.handleCreateProduct)
			r.Post("/products/refresh", s.handleRefreshProducts)
			r.Patch("/products/{id}", s.handleUpdateProduct)
			r.Delete("/products/{id}", s.handleDeleteProduct)
			r.Put("/products/{id}/sizes/{index}", s.handleUpdateStock)

			r.Get("/stats", s.handleStats)
			r.Get("/stock/low", s.handleLowStock)
			r.Get("/stock/out", s.handleOutOfStock)

			r.Get("/imports/template", s.handleDownloadTemplate)
			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					r.Use(middleware.RateLimit(s.cfg.Rate.ImportLimit, time.Minute))
				}
				r.Post("/imports", s.handlePreviewImport)
			})
			r.Get("/imports/{importID}", s.handleGetImport)
			r.Post("/imports/{importID}/commit", s.handleCommitImport)
			r.Delete("/imports/{importID}", s.handleDiscardImport)
		})
	})
}

// Run listens on the configured address and serves until ctx is cancelled.
// See Serve for the shutdown sequence.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then waits for
// running imports to drain and shuts down gracefully. It returns only after
// in-flight requests have finished or the shutdown timeout has passed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(ln)
	}()
	slog.Info("server started", "addr", ln.Addr().String())

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	limiter := s.service.Limiter()
	if active := limiter.ActiveCount(); active > 0 {
		slog.Info("waiting for imports to complete", "active", active)
		if err := limiter.WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		}
	}

	err := s.Shutdown(shutdownCtx)
	if serr := <-serveErr; !errors.Is(serr, http.ErrServerClosed) && err == nil {
		err = serr
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
