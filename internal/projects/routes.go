package projects

import (
	"net/http"

	"github.com/EmpoweredVote/EV-CityMap/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Routes registers the user and project endpoints on r. A nil store registers handlers
// that answer 503.
func Routes(store Store) func(r chi.Router) {
	if store == nil {
		return func(r chi.Router) {
			r.Post("/users/identify", UnavailableHandler)
			r.Get("/users/{user_id}/projects", UnavailableHandler)
			r.Post("/users/{user_id}/projects", UnavailableHandler)
			r.Get("/projects/{project_id}", UnavailableHandler)
		}
	}

	h := NewHandlers(store)
	return func(r chi.Router) {
		r.Post("/users/identify", h.IdentifyHandler)
		r.Get("/projects/{project_id}", h.LoadProjectHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.UserMiddleware(store, "user_id"))
			r.Get("/users/{user_id}/projects", h.ListProjectsHandler)
			r.Post("/users/{user_id}/projects", h.SaveProjectHandler)
		})
	}
}

func SetupRoutes(store Store) http.Handler {
	r := chi.NewRouter()
	r.Group(Routes(store))
	return r
}
