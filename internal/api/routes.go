package api

import (
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.HealthHandler)
	r.Get("/buildings", h.BuildingsHandler)
	r.Get("/buildings/{id}", h.BuildingHandler)
	r.Post("/filter", h.FilterHandler)
	r.Post("/query", h.QueryHandler)

	return r
}
