// Package server exposes the HTTP + WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/server/handler"
	"github.com/riftcast/riftcast/internal/server/middleware"
	"github.com/riftcast/riftcast/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication

	// RateLimiter throttles per-client request rates when non-nil.
	RateLimiter     domain.RateLimiter
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Accounts    *handler.AccountHandler
	Templates   *handler.TemplateHandler
	Predictions *handler.PredictionHandler
	Sessions    *handler.SessionHandler
	Poller      *handler.PollerHandler
}

// Server is the headless HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes on a ServeMux, wires the middleware chain
// and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Twitch OAuth flow.
	mux.HandleFunc("GET /api/auth/login", handlers.Auth.Login)
	mux.HandleFunc("GET /api/auth/callback", handlers.Auth.Callback)
	mux.HandleFunc("POST /api/auth/logout", handlers.Auth.Logout)

	// League accounts.
	mux.HandleFunc("POST /api/accounts", handlers.Accounts.Connect)
	mux.HandleFunc("GET /api/accounts", handlers.Accounts.List)
	mux.HandleFunc("GET /api/accounts/{id}", handlers.Accounts.Get)
	mux.HandleFunc("POST /api/accounts/{id}/activate", handlers.Accounts.Activate)
	mux.HandleFunc("PATCH /api/accounts/{id}/settings", handlers.Accounts.UpdateSettings)
	mux.HandleFunc("DELETE /api/accounts/{id}", handlers.Accounts.Disconnect)

	// Prediction templates.
	mux.HandleFunc("POST /api/templates", handlers.Templates.Create)
	mux.HandleFunc("GET /api/templates", handlers.Templates.List)
	mux.HandleFunc("GET /api/templates/{id}", handlers.Templates.Get)
	mux.HandleFunc("PUT /api/templates/{id}", handlers.Templates.Update)
	mux.HandleFunc("DELETE /api/templates/{id}", handlers.Templates.Delete)

	// Predictions.
	mux.HandleFunc("GET /api/predictions", handlers.Predictions.List)
	mux.HandleFunc("POST /api/predictions", handlers.Predictions.Create)
	mux.HandleFunc("GET /api/predictions/{id}", handlers.Predictions.Get)
	mux.HandleFunc("POST /api/predictions/{id}/resolve", handlers.Predictions.Resolve)
	mux.HandleFunc("POST /api/predictions/{id}/cancel", handlers.Predictions.Cancel)

	// Sessions.
	mux.HandleFunc("POST /api/sessions", handlers.Sessions.Start)
	mux.HandleFunc("GET /api/sessions", handlers.Sessions.List)
	mux.HandleFunc("POST /api/sessions/{id}/end", handlers.Sessions.End)
	mux.HandleFunc("GET /api/sessions/{id}/predictions", handlers.Sessions.Predictions)

	// Manual poll trigger.
	mux.HandleFunc("POST /api/poller/run", handlers.Poller.Run)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/auth/login", "/api/auth/callback")(h)
	if cfg.RateLimiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit, cfg.RateLimitWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: srv, logger: logger}
}

// Start listens for HTTP requests and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
