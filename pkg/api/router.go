package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// GetRouter initialises a new http router and applies all routes
func GetRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	return applyRoutes(r, h)
}

func applyRoutes(r chi.Router, h *Handler) chi.Router {
	r.Get("/health", h.getHealth)
	r.Post("/mark", h.postMark)
	r.Route("/settings", func(r chi.Router) {
		r.Get("/grid", h.getGrid)
		r.Put("/grid", h.putGrid)
	})

	return r
}
