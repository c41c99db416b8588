package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"feedmark/internal/auth"
	"feedmark/internal/core"
	"feedmark/internal/features/reader"
	"feedmark/internal/server/handlers"
)

type Server struct {
	config      *core.Config
	logger      *core.Logger
	db          *core.Database
	authService *auth.Service
	registry    *core.Registry
	router      chi.Router
	server      *http.Server
}

// New opens the database and registers the enabled features. Nothing is migrated
// until Prepare or Start runs.
func New(ctx context.Context, config *core.Config, logger *core.Logger) (*Server, error) {
	db, err := core.OpenDatabase(ctx, config.Database, logger)
	if err != nil {
		return nil, err
	}

	registry := core.NewRegistry(logger)

	if config.IsFeatureEnabled("reader") {
		readerFeature := reader.NewFeature(logger, db, reader.NewConfig(config))
		if err := registry.Register(readerFeature); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to register reader feature: %w", err)
		}
	}

	srv := &Server{
		config:      config,
		logger:      logger,
		db:          db,
		authService: auth.NewService(db, logger, config.Auth.TokenTTL.Duration),
		registry:    registry,
	}

	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupRoutes() {
	portalHandler := handlers.NewPortalHandler(s.logger, s.registry, s.db)
	authHandler := auth.NewHandler(s.authService, s.logger)
	authMiddleware := auth.NewMiddleware(s.authService, s.logger)

	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(authMiddleware.Authenticate)

	mux.Get("/health", portalHandler.HealthCheckHandler)
	mux.Post("/auth/login", authHandler.LoginHandler)

	// Protected routes (require authentication)
	mux.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuthenticatedUser)

		r.Post("/auth/logout", authHandler.LogoutHandler)
		r.Get("/features", portalHandler.FeaturesHandler)

		s.registry.Mount(r)
	})

	s.router = mux
	s.server = &http.Server{
		Addr:    s.config.Addr(),
		Handler: mux,
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Prepare migrates the identity tables, creates the configured admin user and
// initializes every enabled feature
func (s *Server) Prepare(ctx context.Context) error {
	migrations := core.NewMigrationService(s.db, s.logger)
	if err := migrations.ApplyAll(ctx, auth.Migrations); err != nil {
		return fmt.Errorf("failed to apply auth migrations: %w", err)
	}

	if email := s.config.Auth.AdminEmail; email != "" {
		if err := s.authService.EnsureUser(ctx, "admin", email, s.config.Auth.AdminPassword); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
	}

	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}

	return nil
}

// Start prepares the server and serves HTTP until Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	if err := s.Prepare(ctx); err != nil {
		return err
	}

	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.db.LogStats()
	return s.db.Close()
}

// Close releases the database of a server that never started serving
func (s *Server) Close() error {
	return s.db.Close()
}
