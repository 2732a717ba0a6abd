// Package http provides the HTTP handlers and routing of the booking
// server.
package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/metrics"
	"github.com/atinyakov/carebook/internal/middleware"
	"github.com/atinyakov/carebook/internal/models"
	"github.com/atinyakov/carebook/internal/service"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.AuthResponse, error)
	Login(ctx context.Context, in service.LoginInput) (*models.AuthResponse, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (*models.User, error)
	Revoke(ctx context.Context, token string) error
}

// AuthHandler handles registration, login, logout and profile updates.
type AuthHandler struct {
	AuthService AuthService
	Logger      *zap.Logger
}

// Register handles POST /auth/register and responds 201 with the new
// profile and its token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decode(r, &in) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	resp, err := h.AuthService.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !decode(r, &in) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	resp, err := h.AuthService.Login(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, resp)
}

// UpdateProfile handles PUT /auth/profile for the signed-in user.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if !decode(r, &in) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	u, err := h.AuthService.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Logout handles POST /auth/logout by revoking the token the request was
// authenticated with.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenFromContext(r.Context())
	if err := h.AuthService.Revoke(r.Context(), token); err != nil {
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
