package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/api/middleware"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.Identity)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjects)
			r.Post("/", s.createProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getProject)
				r.Delete("/", s.deleteProject)
				r.Get("/publications", s.listPublications)
			})
		})

		// Generation and publishing call paid or rate-limited services.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByUser(s.userLimiter))

			r.Post("/ai/generate-render/{projectId}", s.generateRender(false))
			r.Post("/ai/generate-render/{projectId}/regenerate", s.generateRender(true))
			r.Post("/ai/generate-text/{projectId}", s.generateText(false))
			r.Post("/ai/generate-text/{projectId}/regenerate", s.generateText(true))
			r.Post("/channels/post", s.postToChannel)
		})

		r.Get("/ai/tasks", s.listTasks)
		r.Get("/channels", s.listChannels)
		r.Post("/channels/refresh", s.refreshChannels)
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}
