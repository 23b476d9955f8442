package router

import (
	"net/http"

	"imagination-site-api/internal/handler"
	"imagination-site-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler      *handler.Handler
	PageHandler  *handler.PageHandler
	AdminHandler *handler.AdminHandler
	// AdminKey guards /api/v1/admin; empty disables those routes.
	AdminKey  string
	StaticDir string
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", middleware.AdminKeyHeader},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if cfg.PageHandler != nil {
		r.Get("/", cfg.PageHandler.Index)
	}

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	if cfg.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.PageHandler != nil {
			r.Get("/page", cfg.PageHandler.Snapshot)
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminKey(cfg.AdminKey))
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Post("/refresh", cfg.AdminHandler.Refresh)
				r.Get("/history", cfg.AdminHandler.History)
				r.Post("/history/prune", cfg.AdminHandler.PruneHistory)
			})
		}
	})

	return r
}
