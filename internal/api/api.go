// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/api/health"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/api/middleware"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/channels"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/generation"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/lifecycle"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/publish"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address          string
	RateLimitPerUser int           // generation and publish requests per RateLimitWindow
	RateLimitWindow  time.Duration // default: 1m
	MaxBodyBytes     int64         // request body cap; floor plans arrive as data URLs
	DefaultLocale    models.Locale // locale of projects created without one
	Verbose          bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.RateLimitPerUser == 0 {
		c.RateLimitPerUser = 30
	}
	if c.RateLimitWindow == 0 {
		c.RateLimitWindow = time.Minute
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 10 << 20
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = models.DefaultLocale
	}
}

// Deps are the components served by the API.
type Deps struct {
	Store        *lifecycle.Store
	Orchestrator *generation.Orchestrator
	Publisher    *publish.Coordinator
	Channels     *channels.Registry
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	deps          Deps
	server        *http.Server
	healthHandler *health.Handler
	userLimiter   *middleware.RateLimiter
}

// New creates a new API server.
func New(cfg *Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("project store is required")
	}
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if deps.Publisher == nil || deps.Channels == nil {
		return nil, fmt.Errorf("publisher and channel registry are required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		deps:          deps,
		healthHandler: health.NewHandler(),
		userLimiter:   middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitWindow),
	}

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Synchronous generation waits for the remote model, which can take
		// longer than a minute for renders.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		s.userLimiter.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		s.userLimiter.Close()
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
