// internal/app/features/teams/routes.go
package teams

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstepanova/choreolab/internal/app/system/auth"
)

func Routes(h *Handler, tokens *auth.Manager) chi.Router {
	r := chi.NewRouter()

	// Everything under /teams requires authentication.
	r.Group(func(pr chi.Router) {
		pr.Use(tokens.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{teamID}", h.ServeByID)
		pr.Put("/{teamID}", h.HandleUpdate)
		pr.Delete("/{teamID}", h.HandleDelete)

		// MEMBERS
		pr.Post("/{teamID}/members", h.HandleAddMember)
		pr.Delete("/{teamID}/members/{userID}", h.HandleRemoveMember)
		pr.Put("/{teamID}/members/{userID}", h.HandleUpdateMemberRole)

		// PROJECTS
		pr.Post("/{teamID}/projects", h.HandleAttachProject)
		pr.Delete("/{teamID}/projects/{projectID}", h.HandleDetachProject)
		pr.Get("/{teamID}/projects/{projectID}/viewer", h.ServeProjectViewer)
		pr.Get("/{teamID}/projects/{projectID}/constructor", h.ServeProjectConstructor)
	})

	return r
}
