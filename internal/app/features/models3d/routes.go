// internal/app/features/models3d/routes.go
package models3d

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstepanova/choreolab/internal/app/system/auth"
)

func Routes(h *Handler, tokens *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(tokens.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/upload", h.HandleUpload)
		pr.Get("/{id}", h.ServeByID)
		pr.Delete("/{id}", h.HandleDelete)
	})
	return r
}
