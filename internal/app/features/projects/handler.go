// internal/app/features/projects/handler.go

// Package projects serves project CRUD. Metadata saves go through a
// field-level update that never includes the keyframe blob; that field
// has its own write path in the keyframes engine.
package projects

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mstepanova/choreolab/internal/app/policy/projectpolicy"
	"github.com/mstepanova/choreolab/internal/app/policy/teampolicy"
	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	"github.com/mstepanova/choreolab/internal/app/system/authz"
	"github.com/mstepanova/choreolab/internal/app/system/htmlsanitize"
	"github.com/mstepanova/choreolab/internal/app/system/httpx"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for project endpoints.
type Handler struct {
	Projects *projectstore.Store
	Teams    *teamstore.Store
	Log      *zap.Logger
}

func NewHandler(projects *projectstore.Store, teams *teamstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Projects: projects, Teams: teams, Log: logger}
}

func pathProjectID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid project id")
		return primitive.NilObjectID, false
	}
	return id, true
}

type projectRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	IsPrivate   *bool             `json:"is_private"`
	Duration    *float64          `json:"duration"`
	AudioURL    *string           `json:"audio_url"`
	Elements    *[]models.Element `json:"elements"`
}

// HandleCreate handles POST /projects.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req projectRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(htmlsanitize.Strict(req.Name))
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "project name is required")
		return
	}

	p := models.Project{
		Name:        req.Name,
		Description: strings.TrimSpace(htmlsanitize.Sanitize(req.Description)),
		Owner:       userID,
	}
	if req.IsPrivate != nil {
		p.IsPrivate = *req.IsPrivate
	}
	if req.Duration != nil {
		p.Duration = *req.Duration
	}
	if req.AudioURL != nil {
		p.AudioURL = *req.AudioURL
	}
	if req.Elements != nil {
		p.Elements = *req.Elements
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create project")
	defer cancel()

	created, err := h.Projects.Create(ctx, p)
	if err != nil {
		h.Log.Error("project creation failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not create project")
		return
	}

	h.Log.Info("project created", zap.String("project_id", created.ID.Hex()), zap.String("owner", userID.Hex()))
	httpx.WriteJSON(w, http.StatusCreated, created)
}

// ServeList handles GET /projects: projects the caller owns plus public ones.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list projects")
	defer cancel()

	summaries, err := h.Projects.ListVisible(ctx, userID)
	if err != nil {
		h.Log.Error("project list failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not list projects")
		return
	}
	if summaries == nil {
		summaries = []projectstore.Summary{}
	}
	httpx.WriteJSON(w, http.StatusOK, summaries)
}

// ServeByID handles GET /projects/{projectID}. Public projects are open to
// any signed-in user; private ones need ownership or team viewer access.
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get project")
	defer cancel()

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

	if project.IsPrivate && project.Owner != userID {
		decision, err := projectpolicy.CanAccessProject(ctx, h.Teams, h.Projects,
			projectID, userID, projectpolicy.ViewerCapability)
		if err != nil {
			h.Log.Error("project gate check failed", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "could not check permissions")
			return
		}
		if !decision.Allowed {
			// A private project the caller cannot see reads as missing.
			httpx.WriteError(w, http.StatusNotFound, "project not found")
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, project)
}

// HandleUpdate handles PUT /projects/{projectID}: owner or via-team editor.
// The update cannot touch the keyframe blob regardless of payload.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}

	var req projectRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update project")
	defer cancel()

	decision, err := projectpolicy.CanAccessProject(ctx, h.Teams, h.Projects,
		projectID, userID, projectpolicy.ConstructorCapability)
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
			"message": "you do not have permission to edit this project",
			"reason":  string(decision.Reason),
		})
		return
	}

	u := projectstore.Update{
		IsPrivate: req.IsPrivate,
		Duration:  req.Duration,
		AudioURL:  req.AudioURL,
		Elements:  req.Elements,
	}
	if name := strings.TrimSpace(htmlsanitize.Strict(req.Name)); name != "" {
		u.Name = &name
	}
	if req.Description != "" {
		desc := strings.TrimSpace(htmlsanitize.Sanitize(req.Description))
		u.Description = &desc
	}

	updated, err := h.Projects.ApplyUpdate(ctx, projectID, u)
	if err != nil {
		if err == projectstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project update failed", zap.Error(err), zap.String("project_id", projectID.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not update project")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /projects/{projectID}. Owner only; team
// references to the project are pruned from every team.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete project")
	defer cancel()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		if err == projectstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not delete project")
		return
	}
	if project.Owner != userID {
		httpx.WriteError(w, http.StatusForbidden, "only the project owner can delete it")
		return
	}

	if _, err := h.Projects.Delete(ctx, projectID); err != nil {
		h.Log.Error("project deletion failed", zap.Error(err), zap.String("project_id", projectID.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not delete project")
		return
	}
	if pruned, err := h.Teams.RemoveProjectFromAll(ctx, projectID); err != nil {
		h.Log.Warn("pruning team references failed", zap.Error(err), zap.String("project_id", projectID.Hex()))
	} else if pruned > 0 {
		h.Log.Info("pruned project from teams", zap.Int64("teams", pruned), zap.String("project_id", projectID.Hex()))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "project deleted"})
}
