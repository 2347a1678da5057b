// internal/app/system/auth/auth.go

// Package auth implements the bearer-token middleware contract: given a
// valid Authorization header it injects {userId, username} into the request
// context, and everything downstream trusts that identity without
// re-verification. Token signing and parsing are delegated to golang-jwt;
// this package treats the crypto as a black box.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.uber.org/zap"
)

// SessionUser is what the middleware caches in r.Context().
type SessionUser struct {
	ID       string
	Username string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns a request carrying u in its context. Exposed for handler
// tests that bypass the middleware.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// Claims is the token payload. Subject carries the user id hex.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and verifies bearer tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
}

// NewManager builds a token manager. The secret must be non-empty; there is
// no safe default to fall back to.
func NewManager(secret string, ttl time.Duration, logger *zap.Logger) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, log: logger}, nil
}

// Issue signs a token for the user.
func (m *Manager) Issue(u models.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a raw token string.
func (m *Manager) Verify(raw string) (*SessionUser, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return &SessionUser{ID: claims.Subject, Username: claims.Username}, nil
}

// RequireSignedIn rejects requests without a valid bearer token and injects
// the SessionUser into context for the rest of the chain.
func (m *Manager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			unauthorized(w)
			return
		}
		u, err := m.Verify(raw)
		if err != nil {
			m.log.Warn("token verification failed", zap.Error(err), zap.String("path", r.URL.Path))
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, WithUser(r, u))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"authentication required"}`))
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("malformed authorization header")
	}
	return parts[1], nil
}
