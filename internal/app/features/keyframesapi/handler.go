// internal/app/features/keyframesapi/handler.go

// Package keyframesapi exposes the keyframe merge engine over HTTP. The
// regular and legacy routes decode slightly different payloads but call
// the same engine method, so their persistence behavior is identical.
package keyframesapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mstepanova/choreolab/internal/app/keyframes"
	"github.com/mstepanova/choreolab/internal/app/policy/projectpolicy"
	"github.com/mstepanova/choreolab/internal/app/policy/teampolicy"
	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	"github.com/mstepanova/choreolab/internal/app/system/authz"
	"github.com/mstepanova/choreolab/internal/app/system/httpx"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for keyframe endpoints.
type Handler struct {
	Engine   *keyframes.Engine
	Teams    *teamstore.Store
	Projects *projectstore.Store
	Log      *zap.Logger
}

func NewHandler(engine *keyframes.Engine, teams *teamstore.Store, projects *projectstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Teams: teams, Projects: projects, Log: logger}
}

// gate requires constructor (editor-and-above) access to the project.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request, projectID, userID primitive.ObjectID) bool {
	decision, err := projectpolicy.CanAccessProject(r.Context(), h.Teams, h.Projects,
		projectID, userID, projectpolicy.ConstructorCapability)
	if err != nil {
		h.Log.Error("project gate check failed", zap.Error(err), zap.String("project_id", projectID.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not check permissions")
		return false
	}
	if !decision.Allowed {
		if decision.Reason == teampolicy.ReasonProjectNotFound {
			httpx.WriteError(w, http.StatusNotFound, "project not found")
			return false
		}
		httpx.WriteJSON(w, http.StatusForbidden, map[string]string{
			"message": "you do not have permission to save keyframes for this project",
			"reason":  string(decision.Reason),
		})
		return false
	}
	return true
}

func (h *Handler) requestIDs(w http.ResponseWriter, r *http.Request) (projectID, userID primitive.ObjectID, ok bool) {
	userID, _, ok = authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid project id")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return projectID, userID, true
}

type mergeRequest struct {
	ElementID string            `json:"elementId"`
	Keyframes []keyframes.Input `json:"keyframes"`
}

// HandleMerge handles POST /projects/{projectID}/keyframes.
func (h *Handler) HandleMerge(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}
	if !h.gate(w, r, projectID, userID) {
		return
	}

	var req mergeRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	h.merge(w, r, projectID, req.ElementID, req.Keyframes)
}

// legacyMergeRequest is the older client payload: the element id travels
// as "element" and the list as "data".
type legacyMergeRequest struct {
	Element string            `json:"element"`
	Data    []keyframes.Input `json:"data"`
}

// HandleDirectMerge handles POST /projects/{projectID}/direct-keyframes,
// kept for clients predating the regular route. Same engine call, so the
// two routes cannot diverge.
func (h *Handler) HandleDirectMerge(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}
	if !h.gate(w, r, projectID, userID) {
		return
	}

	var req legacyMergeRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	h.merge(w, r, projectID, req.Element, req.Data)
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request, projectID primitive.ObjectID, elementID string, incoming []keyframes.Input) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "merge keyframes")
	defer cancel()

	result, err := h.Engine.Merge(ctx, projectID, elementID, incoming)
	if err != nil {
		httpx.WriteAPIError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleAnalyze handles POST /projects/{projectID}/keyframes/analyze:
// read-only diagnostics over the submitted payload. Nothing is persisted,
// so viewer access suffices.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}
	decision, err := projectpolicy.CanAccessProject(r.Context(), h.Teams, h.Projects,
		projectID, userID, projectpolicy.ViewerCapability)
	if err != nil {
		h.Log.Error("project gate check failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not check permissions")
		return
	}
	if !decision.Allowed {
		if decision.Reason == teampolicy.ReasonProjectNotFound {
			httpx.WriteError(w, http.StatusNotFound, "project not found")
			return
		}
		httpx.WriteJSON(w, http.StatusForbidden, map[string]string{
			"message": "you do not have permission to view this project",
			"reason":  string(decision.Reason),
		})
		return
	}

	var payload keyframes.SavePayload
	if !httpx.Decode(w, r, &payload) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, keyframes.Analyze(payload))
}

// HandleCompact handles POST /projects/{projectID}/keyframes/compact:
// explicit removal of blob entries whose element no longer exists.
func (h *Handler) HandleCompact(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.requestIDs(w, r)
	if !ok {
		return
	}
	if !h.gate(w, r, projectID, userID) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "compact keyframes")
	defer cancel()

	result, err := h.Engine.Compact(ctx, projectID)
	if err != nil {
		httpx.WriteAPIError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}
