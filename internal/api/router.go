package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashen-heron/trackd/internal/api/auth"
	"github.com/ashen-heron/trackd/internal/api/middleware"
	"github.com/ashen-heron/trackd/internal/api/projects"
	"github.com/ashen-heron/trackd/internal/api/tickets"
	"github.com/ashen-heron/trackd/internal/api/users"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.AccessTokenTTL)
	s.lockout = auth.NewLockoutTracker(s.config.LockoutThreshold, s.config.LockoutDuration)
	s.tokens = auth.NewTokenService(s.storage, s.config.RefreshTokenTTL)

	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	userLimiter := middleware.NewRateLimiter(s.config.RateLimitPerUser)
	s.limiters = []*middleware.RateLimiter{ipLimiter, userLimiter}

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			JSONError(w, ErrRouteNotFound)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			JSONError(w, ErrMethodNotAllowed)
		})

		// Auth routes (mostly public)
		r.Route("/auth", func(r chi.Router) {
			authHandler := auth.NewHandler(s.storage, jwtService, s.tokens, s.lockout)

			// Public routes with IP rate limiting
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(ipLimiter))
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.JWTAuth(jwtService))
				r.Post("/logout", authHandler.Logout)
			})
		})

		// User routes (protected)
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			userHandler := users.NewHandler(s.storage)

			r.Get("/me", userHandler.GetCurrentUser)
			r.Put("/me/password", userHandler.ChangePassword)

			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetByID)
				r.Put("/", userHandler.Update)
				r.Delete("/", userHandler.Delete)
			})
		})

		// Project and ticket routes (protected)
		r.Route("/projects", func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			projectHandler := projects.NewHandler(s.storage)
			ticketHandler := tickets.NewHandler(s.storage)

			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", projectHandler.GetByID)
				r.Put("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)

				r.Route("/tickets", func(r chi.Router) {
					r.Get("/", ticketHandler.ListByProject)
					r.Post("/", ticketHandler.Create)
					r.Get("/{ticketID}", ticketHandler.GetByID)
					r.Put("/{ticketID}", ticketHandler.Update)
					r.Delete("/{ticketID}", ticketHandler.Delete)
				})
			})
		})

		// My tickets (protected)
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			r.Get("/tickets/mine", tickets.NewHandler(s.storage).ListMine)
		})
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	// Web UI at the root
	if s.web != nil {
		r.Mount("/", s.web.Routes())
	}

	return r
}
