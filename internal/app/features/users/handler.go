// internal/app/features/users/handler.go
package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	userstore "github.com/mstepanova/choreolab/internal/app/store/users"
	"github.com/mstepanova/choreolab/internal/app/system/authz"
	"github.com/mstepanova/choreolab/internal/app/system/httpx"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for user endpoints.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// ServeList handles GET /users. Listings omit password hashes by
// construction; the store projection never reads them.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list users")
	defer cancel()

	listings, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Error("user list failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not list users")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listings)
}

// ServeMe handles GET /users/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.serveUser(w, r, userID)
}

// ServeByID handles GET /users/{id}.
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	h.serveUser(w, r, id)
}

func (h *Handler) serveUser(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get user")
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("user lookup failed", zap.Error(err), zap.String("user_id", id.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not load user")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}
