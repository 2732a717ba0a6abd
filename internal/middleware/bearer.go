// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

// TokenResolver maps a bearer token to the id of its user.
type TokenResolver interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer"
// header. On success the resolved user id is stored in the request context
// and can be read with GetUserIDFromContext; the token itself with
// GetTokenFromContext.
func BearerAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Not authorized, no token")
				return
			}
			userID, err := resolver.Authenticate(r.Context(), token)
			if err != nil || userID == "" {
				unauthorized(w, "Not authorized, token failed")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, userID)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// WithUserID returns a copy of ctx carrying userID, as BearerAuth would.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// GetTokenFromContext returns the bearer token BearerAuth accepted, or an
// empty string.
func GetTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey).(string)
	return s
}

// WithToken returns a copy of ctx carrying token, as BearerAuth would.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}
