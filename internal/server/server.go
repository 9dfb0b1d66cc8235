// Package server exposes the documentation pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/costlog"
	"github.com/ziadkadry99/chunkdoc/internal/docgen"
	"github.com/ziadkadry99/chunkdoc/internal/render"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool          // allow all CORS origins (dev mode)
	RequestTimeout time.Duration // per-request deadline (0 = 15 minutes)
}

// Documenter runs the pipeline.
type Documenter interface {
	Document(ctx context.Context, req docgen.Request) (*docgen.Result, error)
	Estimate(ctx context.Context, req docgen.Request) (*docgen.Estimate, error)
}

// CacheAdmin inspects and edits the documentation cache.
type CacheAdmin interface {
	Lookup(ctx context.Context, key cache.Key) (*cache.Entry, bool)
	Remove(ctx context.Context, key cache.Key) error
	Stats(ctx context.Context) cache.Stats
}

// Server is the chunkdoc HTTP API.
type Server struct {
	cfg        Config
	docs       Documenter
	cache      CacheAdmin
	ledger     *costlog.Store
	renderer   *render.Renderer
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. ledger may be nil, in which case the cost
// endpoints are not mounted.
func New(cfg Config, docs Documenter, cacheAdmin CacheAdmin, ledger *costlog.Store, logger *slog.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:      cfg,
		docs:     docs,
		cache:    cacheAdmin,
		ledger:   ledger,
		renderer: render.New(),
		logger:   logger.With("component", "server"),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/docs", func(r chi.Router) {
		r.Post("/", s.handleDocument)
		r.Post("/estimate", s.handleEstimate)
	})
	r.Route("/api/cache", func(r chi.Router) {
		r.Get("/stats", s.handleCacheStats)
		r.Get("/{key}", s.handleCacheGet)
		r.Delete("/{key}", s.handleCacheDelete)
	})
	if s.ledger != nil {
		costlog.RegisterRoutes(r, s.ledger)
	}

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("chunkdoc server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
