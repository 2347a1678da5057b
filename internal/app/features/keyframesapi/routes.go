// internal/app/features/keyframesapi/routes.go
package keyframesapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstepanova/choreolab/internal/app/system/auth"
)

// Register attaches the keyframe routes to an existing /projects router.
// These share the prefix with the project CRUD routes, so they register
// onto the same router instead of mounting a subrouter.
func Register(r chi.Router, h *Handler, tokens *auth.Manager) {
	r.Group(func(kr chi.Router) {
		kr.Use(tokens.RequireSignedIn)

		kr.Post("/{projectID}/keyframes", h.HandleMerge)
		kr.Post("/{projectID}/direct-keyframes", h.HandleDirectMerge)
		kr.Post("/{projectID}/keyframes/analyze", h.HandleAnalyze)
		kr.Post("/{projectID}/keyframes/compact", h.HandleCompact)
	})
}
