// Package api provides the HTTP server: the JSON API under /api/v1 and,
// when enabled, the session-backed web UI at the root.
package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ashen-heron/trackd/internal/api/auth"
	"github.com/ashen-heron/trackd/internal/api/health"
	"github.com/ashen-heron/trackd/internal/api/middleware"
	"github.com/ashen-heron/trackd/internal/storage"
	"github.com/ashen-heron/trackd/internal/web"
)

// Config contains HTTP server configuration.
type Config struct {
	Address          string
	JWTSecret        []byte
	CSRFSecret       string   // For web UI CSRF protection
	TrustedOrigins   []string // Extra hosts the web CSRF check accepts, e.g. "tracker.internal:8080"
	WebUIEnabled     bool
	UseSecureCookies bool // Secure cookie flag, for production behind HTTPS
	HTTPTLSEnabled   bool
	HTTPTLSCertFile  string
	HTTPTLSKeyFile   string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	RateLimitPerIP   int
	RateLimitPerUser int
	LockoutThreshold int
	LockoutDuration  time.Duration
	Verbose          bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 5 // login attempts per minute per IP
	}
	if c.RateLimitPerUser == 0 {
		c.RateLimitPerUser = 100 // requests per minute per user
	}
	if c.LockoutThreshold == 0 {
		c.LockoutThreshold = 5
	}
	if c.LockoutDuration == 0 {
		c.LockoutDuration = 30 * time.Minute
	}
}

// Server is the HTTP server.
type Server struct {
	config        *Config
	storage       storage.Storage
	web           *web.Server
	server        *http.Server
	healthHandler *health.Handler
	tokens        *auth.TokenService
	lockout       *auth.LockoutTracker
	limiters      []*middleware.RateLimiter
}

// New creates a new server.
func New(cfg *Config, store storage.Storage) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT secret is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		storage:       store,
		healthHandler: health.NewHandler(),
	}

	if cfg.WebUIEnabled {
		s.web = web.NewServerWithSessions(store, cfg.CSRFSecret, nil, cfg.UseSecureCookies, cfg.TrustedOrigins)
	}

	router := s.setupRouter()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.HTTPTLSEnabled {
		s.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go s.tokens.StartCleanup(ctx, time.Hour)

	go func() {
		log.Printf("HTTP server listening on %s", s.config.Address)
		var err error
		if s.config.HTTPTLSEnabled {
			err = s.server.ListenAndServeTLS(s.config.HTTPTLSCertFile, s.config.HTTPTLSKeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP server...")
		if s.web != nil {
			s.web.Sessions().Close()
		}
		s.lockout.Stop()
		for _, limiter := range s.limiters {
			limiter.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}
