// internal/app/features/authn/handler.go

// Package authn serves registration and login. Both endpoints are public
// and rate limited; everything else in the API sits behind the bearer
// token this package hands out.
package authn

import (
	"net/http"
	"strings"

	userstore "github.com/mstepanova/choreolab/internal/app/store/users"
	"github.com/mstepanova/choreolab/internal/app/system/auth"
	"github.com/mstepanova/choreolab/internal/app/system/httpx"
	"github.com/mstepanova/choreolab/internal/app/system/ratelimit"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler holds dependencies for the auth endpoints.
type Handler struct {
	Users   *userstore.Store
	Tokens  *auth.Manager
	Limiter *ratelimit.LoginLimiter
	Log     *zap.Logger
}

func NewHandler(users *userstore.Store, tokens *auth.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   users,
		Tokens:  tokens,
		Limiter: ratelimit.NewLoginLimiter(),
		Log:     logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userInfo `json:"user"`
}

type userInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HandleRegister handles POST /auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "username and email are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		httpx.WriteError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		httpx.WriteError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if allowed, reason := h.Limiter.Check(r, req.Email); !allowed {
		httpx.WriteError(w, http.StatusTooManyRequests, reason)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hashing failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register user")
	defer cancel()

	user, err := h.Users.Create(ctx, req.Username, req.Email, string(hash))
	if err != nil {
		if err == userstore.ErrDuplicate {
			httpx.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("user creation failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	h.Log.Info("user registered", zap.String("user_id", user.ID.Hex()), zap.String("username", user.Username))
	httpx.WriteJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  userInfo{ID: user.ID.Hex(), Username: user.Username, Email: user.Email},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login. Wrong email and wrong password
// produce the same response, so the endpoint cannot be used to probe for
// accounts.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if allowed, reason := h.Limiter.Check(r, req.Email); !allowed {
		httpx.WriteError(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not sign in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	h.Limiter.ResetEmail(req.Email)
	h.Log.Info("user signed in", zap.String("user_id", user.ID.Hex()))
	httpx.WriteJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  userInfo{ID: user.ID.Hex(), Username: user.Username, Email: user.Email},
	})
}
