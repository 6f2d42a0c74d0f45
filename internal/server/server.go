package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/leasedesk/leasedesk/internal/api/ws"
	"github.com/leasedesk/leasedesk/internal/auth"
	"github.com/leasedesk/leasedesk/internal/config"
	"github.com/leasedesk/leasedesk/internal/esign"
	"github.com/leasedesk/leasedesk/internal/invite"
	"github.com/leasedesk/leasedesk/internal/server/middleware"
	redisstore "github.com/leasedesk/leasedesk/internal/store/redis"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	wsHub      *ws.Hub
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the background
// cleanup of the rate limiter state.
func New(ctx context.Context, cfg *config.Config, esignSvc *esign.Service, inviteSvc *invite.Service, authSvc *auth.Service, pubsub *redisstore.PubSub) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.ClientIP())
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(pubsub)

	s := &Server{
		router: router,
		wsHub:  hub,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Public, rate-limited group for signing, invitations, and login.
	// 2. Portal group behind the session JWT.
	// 3. Staff group behind the shared API key.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.Esign.RateLimitRPS, cfg.Esign.RateLimitBurst))

			publicConfig := huma.DefaultConfig("LeaseDesk Signing API", "1.0.0")
			publicConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			publicAPI := humachi.New(r, publicConfig)
			registerPublicRoutes(publicAPI, esignSvc, inviteSvc, authSvc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.PortalAuth(cfg.JWT.Secret))

			portalConfig := huma.DefaultConfig("LeaseDesk Portal API", "1.0.0")
			portalConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			portalAPI := humachi.New(r, portalConfig)
			registerPortalRoutes(portalAPI, authSvc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.StaffKey(cfg.Staff.APIKey))

			staffConfig := huma.DefaultConfig("LeaseDesk Staff API", "1.0.0")
			staffConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			staffAPI := humachi.New(r, staffConfig)
			registerStaffRoutes(staffAPI, esignSvc)
		})
	})

	// WebSocket routes: agreement event streams for the signing UI.
	router.Route("/ws", func(r chi.Router) {
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
