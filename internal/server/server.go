package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quillpost/quillpost-go/internal/config"
	"github.com/quillpost/quillpost-go/internal/crypto"
	"github.com/quillpost/quillpost-go/internal/handler"
	"github.com/quillpost/quillpost-go/internal/metrics"
	"github.com/quillpost/quillpost-go/internal/middleware"
	"github.com/quillpost/quillpost-go/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API.
type Server struct {
	cfg     config.Config
	handler http.Handler
}

// New wires services and handlers over the given stores. ctx bounds
// background work owned by the router, such as rate-limiter cleanup.
func New(ctx context.Context, cfg config.Config, users service.UserStore, blogs service.BlogStore, m *metrics.Metrics) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, config.ErrMissingJWTSecret
	}
	if m == nil {
		m = metrics.New("")
	}

	hasher, err := crypto.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	authHandler := handler.NewAuthHandler(service.NewAuthService(users, hasher, tokens))
	blogHandler := handler.NewBlogHandler(service.NewBlogService(blogs))

	authenticate := middleware.Authenticate(tokens, m)
	authRateLimit := middleware.RateLimit(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, m)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(m))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authRateLimit)
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})
		r.With(authenticate).Get("/me", authHandler.HandleMe)
	})

	r.Route("/blogs", func(r chi.Router) {
		r.Get("/", blogHandler.HandleList)
		r.Get("/{id}", blogHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", blogHandler.HandleCreate)
			r.Put("/{id}", blogHandler.HandleUpdate)
			r.Delete("/{id}", blogHandler.HandleDelete)
		})
	})

	return &Server{cfg: cfg, handler: r}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
