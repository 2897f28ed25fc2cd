// Package api provides the HTTP read and sync API.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"figmatext/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wraps the services for HTTP handlers.
type Handler struct {
	sync            *service.SyncService
	loc             *service.LocalizationService
	db              Pinger
	figmaConfigured bool
}

// NewHandler creates a new API handler. figmaConfigured is reported by
// /health and tells whether an API token is available.
func NewHandler(sync *service.SyncService, loc *service.LocalizationService, db Pinger, figmaConfigured bool) *Handler {
	return &Handler{sync: sync, loc: loc, db: db, figmaConfigured: figmaConfigured}
}

// NewRouter creates the HTTP router with all routes registered. Responses
// are gzip-compressed when the client accepts it.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Access-Control-Allow-Origin", "*"))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Read view and raw snapshot
		r.Get("/figma/texts", h.Texts)
		r.Get("/figma/data", h.Data)

		// Pages and screens
		r.Get("/figma/pages", h.Pages)
		r.Get("/figma/pages/{page}", h.Page)
		r.Get("/figma/pages/{page}/screens/{screen}", h.Screen)

		// Sync
		r.Post("/sync", h.Sync)
		r.Get("/sync/runs", h.SyncRuns)

		// Exports: /api/localization/{page}.json or .xml
		r.Get("/localization/{file}", h.Localization)
	})

	return gzhttp.GzipHandler(r)
}
