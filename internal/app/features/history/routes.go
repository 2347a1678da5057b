// internal/app/features/history/routes.go
package history

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstepanova/choreolab/internal/app/system/auth"
)

func Routes(h *Handler, tokens *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(tokens.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleAdd)
	})
	return r
}
