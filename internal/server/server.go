// Package server wires handlers, middleware, and routes, and owns the HTTP
// server lifecycle.
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

	"github.com/pupaakdev/userd/internal/auth"
	"github.com/pupaakdev/userd/internal/config"
	"github.com/pupaakdev/userd/internal/handler"
	"github.com/pupaakdev/userd/internal/middleware"
	sqliteRepo "github.com/pupaakdev/userd/internal/repository/sqlite"
	"github.com/pupaakdev/userd/internal/service"
)

// Server holds the router and the resources it owns. The database
// connection is closed on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency graph: database → services → handlers
// → routes. Each layer receives only what it needs; handlers never touch
// the database, services never touch HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and all route handlers.
//
// Route structure:
//
//	GET    /                          → welcome message
//	POST   /register                  → local registration
//	POST   /login                     → password login
//	GET    /oauth/{provider}/login    → redirect to consent screen
//	GET    /oauth/{provider}/callback → complete OAuth login
//	GET    /users                     → list users         (bearer token)
//	DELETE /users/{id}                → delete user        (bearer token)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWT.Secret, s.config.JWT.Issuer, s.config.JWT.TTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	passwords := auth.NewPasswordService()

	// The OAuth provider is optional: without credentials the server still
	// serves local auth, and the OAuth routes answer with a configuration
	// error.
	var github handler.OAuthProvider
	if provider, err := auth.NewGitHubProvider(
		s.config.GitHub.ClientID,
		s.config.GitHub.ClientSecret,
		s.config.GitHub.CallbackURL,
	); err != nil {
		s.logger.Warn("GitHub OAuth not configured, OAuth login disabled",
			slog.String("error", err.Error()),
		)
	} else {
		github = provider
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	userService := service.NewUserService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.config.FrontendCallbackURL, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Welcome to the userd API!"}`))
	})

	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)

	s.router.Route("/oauth/{provider}", func(r chi.Router) {
		r.Get("/login", authHandler.HandleOAuthLogin)
		r.Get("/callback", authHandler.HandleOAuthCallback)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, s.db))
		r.Get("/users", userHandler.HandleList)
		r.Delete("/users/{id}", userHandler.HandleDelete)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
