// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware and
// routes, and owns the database handle for the life of the process.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go: config.Load → server.New(cfg)
//	server.New: sqlite.DB → UserDB/StudentDB → AuthService/StudentService
//	            → AuthHandler/StudentHandler → chi routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/student-roster/internal/auth"
	"github.com/sakif/student-roster/internal/handler"
	"github.com/sakif/student-roster/internal/middleware"
	sqliteRepo "github.com/sakif/student-roster/internal/repository/sqlite"
	"github.com/sakif/student-roster/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port            int
	DBPath          string
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
	BcryptCost      int
	ShutdownTimeout time.Duration
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database handle. Start closes it on the way out;
// callers that never call Start must call Close.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	registry *prometheus.Registry
}

// New opens the database, builds the dependency graph and registers routes.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it is not confused with the
// modernc.org/sqlite driver.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root handler; tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /api/health                 → liveness (public)
//	GET    /metrics                    → Prometheus (public)
//	POST   /api/auth/register          → create account (public)
//	POST   /api/auth/login             → issue token (public)
//	GET    /api/auth/me                → current user        [auth]
//	GET    /api/students               → list                [auth]
//	POST   /api/students               → create              [auth]
//	GET    /api/students/search/{query}→ search              [auth]
//	GET    /api/students/{id}          → get                 [auth]
//	PUT    /api/students/{id}          → replace             [auth]
//	DELETE /api/students/{id}          → delete              [auth]
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns a unique id to each request (for tracing)
//  2. RealIP: extracts the client IP from proxy headers
//  3. Logger and Metrics: see the final status of every request
//  4. Recover: turns panics into a JSON 500 that Logger and Metrics still see
//
// Unknown paths and wrong methods get the same {"error": ...} body as
// every other failure.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: s.config.JWTSecret,
		Issuer: s.config.JWTIssuer,
		TTL:    s.config.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	authService, err := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}
	studentService := service.NewStudentService(s.db.Students(), s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	studentHandler := handler.NewStudentHandler(studentService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(s.db.SQL(), "roster"),
	)
	metrics := middleware.NewMetrics(s.registry)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Handler)
	s.router.Use(middleware.Recover(s.logger))

	// Set before any Route call so subrouters inherit the JSON envelope.
	s.router.NotFound(handler.HandleNotFound)
	s.router.MethodNotAllowed(handler.HandleMethodNotAllowed)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/students", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", studentHandler.HandleList)
			r.Post("/", studentHandler.HandleCreate)
			// An empty term never matches {query}; route it to the
			// handler so it gets the 400 instead of a bare 404.
			r.Get("/search", studentHandler.HandleSearch)
			r.Get("/search/", studentHandler.HandleSearch)
			r.Get("/search/{query}", studentHandler.HandleSearch)
			r.Get("/{id}", studentHandler.HandleGet)
			r.Put("/{id}", studentHandler.HandleUpdate)
			r.Delete("/{id}", studentHandler.HandleDelete)
		})
	})

	return nil
}

// Start serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully and closes the database.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (ShutdownTimeout)
//  3. Close the database (flushes WAL, releases the file lock)
//
// errgroup runs the listener and the shutdown watcher side by side; if the
// listener fails (port in use), its error cancels the group and is returned.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
