package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/auth"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
)

// Error messages returned with 401 and 403 responses.
const (
	MsgMissingHeader = "Missing authorization header"
	MsgInvalidToken  = "Invalid token"
	MsgTokenExpired  = "Token has expired"
	MsgAdminRequired = "Admin access required"
)

type contextKey struct{}

// UserID returns the authenticated user id stored by Optional or Require.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok
}

// WithUserID returns a copy of ctx carrying id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Auth verifies bearer tokens.
type Auth struct {
	issuer *auth.Issuer
	users  repository.UserRepository
}

func NewAuth(issuer *auth.Issuer, users repository.UserRepository) *Auth {
	return &Auth{issuer: issuer, users: users}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Optional attaches the user id when a valid token is present and otherwise
// passes the request through untouched.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if id, err := a.issuer.Verify(token); err == nil {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, MsgMissingHeader)
			return
		}
		id, err := a.issuer.Verify(token)
		if errors.Is(err, auth.ErrTokenExpired) {
			writeError(w, http.StatusUnauthorized, MsgTokenExpired)
			return
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, MsgInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// Admin is Require plus an is_admin check against the user table.
func (a *Auth) Admin(next http.Handler) http.Handler {
	return a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserID(r.Context())
		user, err := a.users.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if user == nil || !user.IsAdmin {
			writeError(w, http.StatusForbidden, MsgAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
