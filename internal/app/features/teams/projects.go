// internal/app/features/teams/projects.go
package teams

import (
	"net/http"

	"github.com/mstepanova/choreolab/internal/app/policy/projectpolicy"
	"github.com/mstepanova/choreolab/internal/app/policy/teampolicy"
	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	"github.com/mstepanova/choreolab/internal/app/system/authz"
	"github.com/mstepanova/choreolab/internal/app/system/httpx"
	"github.com/mstepanova/choreolab/internal/app/system/roles"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type attachProjectRequest struct {
	ProjectID string `json:"projectId"`
}

// HandleAttachProject handles POST /teams/{teamID}/projects (admin and
// above). The project must already exist; attaching records a history
// entry for the caller.
func (h *Handler) HandleAttachProject(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	if _, ok := h.gate(w, r, teamID, userID, roles.Admin); !ok {
		return
	}

	var req attachProjectRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid projectId")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attach project")
	defer cancel()

	if _, err := h.Projects.GetByID(ctx, projectID); err != nil {
		if err == projectstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not attach project")
		return
	}

	if err := h.Teams.AddProject(ctx, teamID, projectID); err != nil {
		switch err {
		case teamstore.ErrNotFound:
			httpx.WriteError(w, http.StatusNotFound, "team not found")
		case teamstore.ErrDuplicateProject:
			httpx.WriteError(w, http.StatusConflict, err.Error())
		default:
			h.Log.Error("attach project failed", zap.Error(err), zap.String("team_id", teamID.Hex()))
			httpx.WriteError(w, http.StatusInternalServerError, "could not attach project")
		}
		return
	}

	h.recordHistoryForProject(r, userID, projectID, models.ActionTeamProjectUpdated,
		username+" attached a project to the team")
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "project attached"})
}

// HandleDetachProject handles DELETE /teams/{teamID}/projects/{projectID}
// (admin and above). The project document itself is untouched.
func (h *Handler) HandleDetachProject(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	if _, ok := h.gate(w, r, teamID, userID, roles.Admin); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "detach project")
	defer cancel()

	if err := h.Teams.RemoveProject(ctx, teamID, projectID); err != nil {
		switch err {
		case teamstore.ErrNotFound:
			httpx.WriteError(w, http.StatusNotFound, "team not found")
		case teamstore.ErrProjectNotFound:
			httpx.WriteError(w, http.StatusNotFound, "project is not attached to this team")
		default:
			h.Log.Error("detach project failed", zap.Error(err), zap.String("team_id", teamID.Hex()))
			httpx.WriteError(w, http.StatusInternalServerError, "could not detach project")
		}
		return
	}

	h.recordHistoryForProject(r, userID, projectID, models.ActionTeamProjectUpdated,
		username+" detached a project from the team")
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "project detached"})
}

// ServeProjectViewer handles GET /teams/{teamID}/projects/{projectID}/viewer.
// Viewer and above.
func (h *Handler) ServeProjectViewer(w http.ResponseWriter, r *http.Request) {
	h.serveTeamProject(w, r, projectpolicy.ViewerCapability)
}

// ServeProjectConstructor handles
// GET /teams/{teamID}/projects/{projectID}/constructor. Editor and above.
func (h *Handler) ServeProjectConstructor(w http.ResponseWriter, r *http.Request) {
	h.serveTeamProject(w, r, projectpolicy.ConstructorCapability)
}

// serveTeamProject gates on the team, verifies the project is actually
// attached, and returns the project document.
func (h *Handler) serveTeamProject(w http.ResponseWriter, r *http.Request, need roles.Capability) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "open team project")
	defer cancel()

	team, err := h.Teams.GetByID(ctx, teamID)
	if err != nil {
		if err == teamstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "team not found")
			return
		}
		h.Log.Error("team lookup failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not load team")
		return
	}
	if !team.HasProject(projectID) {
		writeDenial(w, teampolicy.Decision{Reason: teampolicy.ReasonProjectNotFound})
		return
	}
	if decision := teampolicy.Check(team, userID, need); !decision.Allowed {
		writeDenial(w, decision)
		return
	}

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		if err == projectstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not load project")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) recordHistoryForProject(r *http.Request, userID, projectID primitive.ObjectID, action, description string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "record history")
	defer cancel()
	if _, err := h.History.Add(ctx, userID, projectID, action, description); err != nil {
		h.Log.Warn("history entry failed", zap.Error(err), zap.String("action", action))
	}
}
