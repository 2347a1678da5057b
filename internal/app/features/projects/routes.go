// internal/app/features/projects/routes.go
package projects

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstepanova/choreolab/internal/app/system/auth"
)

func Routes(h *Handler, tokens *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(tokens.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{projectID}", h.ServeByID)
		pr.Put("/{projectID}", h.HandleUpdate)
		pr.Delete("/{projectID}", h.HandleDelete)
	})
	return r
}
