// internal/app/features/history/handler.go
package history

import (
	"net/http"
	"strings"

	historystore "github.com/mstepanova/choreolab/internal/app/store/history"
	"github.com/mstepanova/choreolab/internal/app/system/authz"
	"github.com/mstepanova/choreolab/internal/app/system/htmlsanitize"
	"github.com/mstepanova/choreolab/internal/app/system/httpx"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for the activity-feed endpoints.
type Handler struct {
	History *historystore.Store
	Log     *zap.Logger
}

func NewHandler(history *historystore.Store, logger *zap.Logger) *Handler {
	return &Handler{History: history, Log: logger}
}

// ServeList handles GET /history: the caller's recent entries, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list history")
	defer cancel()

	entries, err := h.History.ListForUser(ctx, userID)
	if err != nil {
		h.Log.Error("history list failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	if entries == nil {
		entries = []models.History{}
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

type addRequest struct {
	ProjectID   string `json:"projectId"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// HandleAdd handles POST /history: clients record their own actions
// (project opened, export finished) alongside the server-recorded ones.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req addRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	req.Action = strings.TrimSpace(req.Action)
	if req.Action == "" {
		httpx.WriteError(w, http.StatusBadRequest, "action is required")
		return
	}

	projectID := primitive.NilObjectID
	if req.ProjectID != "" {
		var err error
		if projectID, err = primitive.ObjectIDFromHex(req.ProjectID); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid projectId")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add history entry")
	defer cancel()

	entry, err := h.History.Add(ctx, userID, projectID, req.Action,
		strings.TrimSpace(htmlsanitize.Strict(req.Description)))
	if err != nil {
		h.Log.Error("history insert failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not record history")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, entry)
}
