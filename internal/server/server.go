// Package server wires the application together: database, blob store,
// services, handlers, routes, and the HTTP server lifecycle.
//
// This is the composition root. Each layer only receives what it needs: the
// services get repository interfaces, the handlers get services, and nothing
// below this package knows about routing.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/adeolu/marketplace/internal/auth"
	"github.com/adeolu/marketplace/internal/blob"
	"github.com/adeolu/marketplace/internal/config"
	"github.com/adeolu/marketplace/internal/handler"
	"github.com/adeolu/marketplace/internal/middleware"
	sqliteRepo "github.com/adeolu/marketplace/internal/repository/sqlite"
	"github.com/adeolu/marketplace/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown, most importantly the database connection.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain from the config.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes configures middleware, handlers, and the route table.
//
// Route table:
//
//	POST   /auth/signup        → register (JSON)
//	POST   /auth/login         → token pair (form-encoded credentials)
//	POST   /auth/refresh       → new access token (JSON)
//	GET    /api/items          → list listings, ?location= &name= filters
//	GET    /api/items/{id}     → single listing
//	GET    /uploads/*          → uploaded images (static)
//	GET    /api/me             → current account            [auth]
//	POST   /api/items          → create listing (multipart) [auth]
//	PUT    /api/items/{id}     → update listing (multipart) [auth]
//	DELETE /api/items/{id}     → delete listing             [auth]
//	DELETE /api/users/me       → delete own account         [auth]
//	DELETE /api/users/{id}     → delete any account         [auth, superuser]
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	blobs, err := blob.New(s.config.UploadDir)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.AccessTokenTTL, s.config.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	users := s.db.Users()
	items := s.db.Items()

	authService := service.NewAuthService(users, tokens, passwords, s.config.AdminKey, s.logger)
	itemService := service.NewItemService(items, blobs, s.logger)
	userService := service.NewUserService(users, items, blobs, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	itemHandler := handler.NewItemHandler(itemService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	// Uploaded images are public once the blob name is known.
	fileServer := http.FileServer(http.Dir(blobs.Dir()))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/refresh", authHandler.HandleRefresh)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Browsing is public.
		r.Get("/items", itemHandler.HandleList)
		r.Get("/items/{id}", itemHandler.HandleGetByID)

		// Everything that mutates requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, users))
			r.Get("/me", authHandler.HandleMe)
			r.Post("/items", itemHandler.HandleCreate)
			r.Put("/items/{id}", itemHandler.HandleUpdate)
			r.Delete("/items/{id}", itemHandler.HandleDelete)
			r.Delete("/users/me", userHandler.HandleDeleteMe)
			r.Delete("/users/{id}", userHandler.HandleDelete)
		})
	})

	return nil
}

// Router exposes the configured mux, mainly for tests that drive the server
// through httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start.
func (s *Server) Close() error {
	return s.db.Close()
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
			slog.String("uploads", s.config.UploadDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
