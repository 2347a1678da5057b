// internal/app/features/teams/handler.go

// Package teams serves team CRUD, membership management, and the
// team-scoped project endpoints (attach/detach, viewer, constructor).
// Every mutating endpoint goes through the team gate; denials carry a
// machine-readable reason so clients can distinguish "not a member"
// from "role too low".
package teams

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mstepanova/choreolab/internal/app/policy/teampolicy"
	historystore "github.com/mstepanova/choreolab/internal/app/store/history"
	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	userstore "github.com/mstepanova/choreolab/internal/app/store/users"
	"github.com/mstepanova/choreolab/internal/app/system/authz"
	"github.com/mstepanova/choreolab/internal/app/system/htmlsanitize"
	"github.com/mstepanova/choreolab/internal/app/system/httpx"
	"github.com/mstepanova/choreolab/internal/app/system/roles"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for team endpoints.
type Handler struct {
	Teams    *teamstore.Store
	Users    *userstore.Store
	Projects *projectstore.Store
	History  *historystore.Store
	Log      *zap.Logger
}

func NewHandler(teams *teamstore.Store, users *userstore.Store, projects *projectstore.Store, history *historystore.Store, logger *zap.Logger) *Handler {
	return &Handler{Teams: teams, Users: users, Projects: projects, History: history, Log: logger}
}

// writeDenial maps a gate decision to an HTTP response. Missing targets
// are 404s; everything else is a 403 carrying the reason.
func writeDenial(w http.ResponseWriter, d teampolicy.Decision) {
	switch d.Reason {
	case teampolicy.ReasonTeamNotFound:
		httpx.WriteError(w, http.StatusNotFound, "team not found")
	case teampolicy.ReasonProjectNotFound:
		httpx.WriteError(w, http.StatusNotFound, "project not found")
	default:
		httpx.WriteJSON(w, http.StatusForbidden, map[string]string{
			"message": "you do not have permission to perform this action",
			"reason":  string(d.Reason),
		})
	}
}

// gate runs the team access check and writes the denial itself. The
// returned decision is only meaningful when ok is true.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request, teamID, userID primitive.ObjectID, need roles.Capability) (teampolicy.Decision, bool) {
	decision, err := teampolicy.CanAccessTeam(r.Context(), h.Teams, teamID, userID, need)
	if err != nil {
		h.Log.Error("team gate check failed", zap.Error(err), zap.String("team_id", teamID.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not check permissions")
		return teampolicy.Decision{}, false
	}
	if !decision.Allowed {
		writeDenial(w, decision)
		return decision, false
	}
	return decision, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

type teamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate handles POST /teams. The caller becomes the owner and is
// not placed in the members array.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req teamRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(htmlsanitize.Strict(req.Name))
	req.Description = strings.TrimSpace(htmlsanitize.Sanitize(req.Description))
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "team name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create team")
	defer cancel()

	team, err := h.Teams.Create(ctx, userID, req.Name, req.Description)
	if err != nil {
		h.Log.Error("team creation failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not create team")
		return
	}

	h.Log.Info("team created", zap.String("team_id", team.ID.Hex()), zap.String("owner", userID.Hex()))
	httpx.WriteJSON(w, http.StatusCreated, team)
}

// ServeList handles GET /teams: teams where the caller is owner or member.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list teams")
	defer cancel()

	teams, err := h.Teams.ListForUser(ctx, userID)
	if err != nil {
		h.Log.Error("team list failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not list teams")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, teams)
}

// ServeByID handles GET /teams/{teamID} (viewer and above).
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	if _, ok := h.gate(w, r, teamID, userID, roles.Viewer); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get team")
	defer cancel()

	team, err := h.Teams.GetByID(ctx, teamID)
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "team not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, team)
}

// HandleUpdate handles PUT /teams/{teamID} (admin and above).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
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

	var req teamRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(htmlsanitize.Strict(req.Name))
	req.Description = strings.TrimSpace(htmlsanitize.Sanitize(req.Description))
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "team name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update team")
	defer cancel()

	if err := h.Teams.UpdateInfo(ctx, teamID, req.Name, req.Description); err != nil {
		if err == teamstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "team not found")
			return
		}
		h.Log.Error("team update failed", zap.Error(err), zap.String("team_id", teamID.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not update team")
		return
	}

	team, err := h.Teams.GetByID(ctx, teamID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "could not load updated team")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, team)
}

// HandleDelete handles DELETE /teams/{teamID}. Owner only: admins manage
// the team, but only the owner can destroy it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	decision, ok := h.gate(w, r, teamID, userID, roles.Admin)
	if !ok {
		return
	}
	if decision.Role != roles.Owner {
		httpx.WriteJSON(w, http.StatusForbidden, map[string]string{
			"message": "only the team owner can delete the team",
			"reason":  string(teampolicy.ReasonInsufficientRole),
		})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete team")
	defer cancel()

	if err := h.Teams.Delete(ctx, teamID); err != nil {
		if err == teamstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "team not found")
			return
		}
		h.Log.Error("team deletion failed", zap.Error(err), zap.String("team_id", teamID.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not delete team")
		return
	}

	h.Log.Info("team deleted", zap.String("team_id", teamID.Hex()), zap.String("by", userID.Hex()))
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "team deleted"})
}

type addMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// HandleAddMember handles POST /teams/{teamID}/members (admin and above).
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
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

	var req addMemberRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "add team member")
	defer cancel()

	exists, err := h.Users.Exists(ctx, memberID)
	if err != nil {
		h.Log.Error("member existence check failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not add member")
		return
	}
	if !exists {
		httpx.WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	team, err := h.Teams.AddMember(ctx, teamID, memberID, req.Role)
	if err != nil {
		switch err {
		case teamstore.ErrNotFound:
			httpx.WriteError(w, http.StatusNotFound, "team not found")
		case teamstore.ErrDuplicateMember, teamstore.ErrOwnerAsMember:
			httpx.WriteError(w, http.StatusConflict, err.Error())
		case teamstore.ErrBadRole:
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			h.Log.Error("add member failed", zap.Error(err), zap.String("team_id", teamID.Hex()))
			httpx.WriteError(w, http.StatusInternalServerError, "could not add member")
		}
		return
	}

	h.recordHistory(r, userID, models.ActionTeamMemberAdded,
		username+" added a member to "+team.Name)
	httpx.WriteJSON(w, http.StatusOK, team)
}

// HandleRemoveMember handles DELETE /teams/{teamID}/members/{userID}.
// Admin and above; the owner can never be removed, and removing an admin
// requires the owner.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	decision, ok := h.gate(w, r, teamID, userID, roles.Admin)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove team member")
	defer cancel()

	err := h.Teams.RemoveMember(ctx, teamID, memberID, decision.Role == roles.Owner)
	if err != nil {
		switch err {
		case teamstore.ErrNotFound:
			httpx.WriteError(w, http.StatusNotFound, "team not found")
		case teamstore.ErrMemberNotFound:
			httpx.WriteError(w, http.StatusNotFound, "user is not a member of this team")
		case teamstore.ErrRemoveOwner, teamstore.ErrRemoveAdmin:
			httpx.WriteError(w, http.StatusForbidden, err.Error())
		default:
			h.Log.Error("remove member failed", zap.Error(err), zap.String("team_id", teamID.Hex()))
			httpx.WriteError(w, http.StatusInternalServerError, "could not remove member")
		}
		return
	}

	h.recordHistory(r, userID, models.ActionTeamMemberRemoved,
		username+" removed a member from the team")
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// HandleUpdateMemberRole handles PUT /teams/{teamID}/members/{userID}
// (admin and above).
func (h *Handler) HandleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if _, ok := h.gate(w, r, teamID, userID, roles.Admin); !ok {
		return
	}

	var req updateRoleRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update member role")
	defer cancel()

	if err := h.Teams.UpdateMemberRole(ctx, teamID, memberID, req.Role); err != nil {
		switch err {
		case teamstore.ErrNotFound:
			httpx.WriteError(w, http.StatusNotFound, "team not found")
		case teamstore.ErrMemberNotFound:
			httpx.WriteError(w, http.StatusNotFound, "user is not a member of this team")
		case teamstore.ErrBadRole:
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			h.Log.Error("role update failed", zap.Error(err), zap.String("team_id", teamID.Hex()))
			httpx.WriteError(w, http.StatusInternalServerError, "could not update role")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

func (h *Handler) recordHistory(r *http.Request, userID primitive.ObjectID, action, description string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "record history")
	defer cancel()
	if _, err := h.History.Add(ctx, userID, primitive.NilObjectID, action, description); err != nil {
		// History is best effort; the primary operation already succeeded.
		h.Log.Warn("history entry failed", zap.Error(err), zap.String("action", action))
	}
}
