package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/metrics"
	"github.com/atinyakov/carebook/internal/middleware"
	"github.com/atinyakov/carebook/internal/models"
)

// BookingService defines the booking operations required by BookingHandler.
type BookingService interface {
	Create(ctx context.Context, userID string, req models.BookingRequest) (*models.Booking, error)
	ListMine(ctx context.Context, userID string) ([]models.Booking, error)
	Cancel(ctx context.Context, userID, id string) (*models.Booking, error)
}

// BookingHandler serves the /bookings endpoints.
type BookingHandler struct {
	BookingService BookingService
	Logger         *zap.Logger
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if !decode(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	b, err := h.BookingService.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	metrics.BookingsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, b)
}

// Mine handles GET /bookings/my-bookings.
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	list, err := h.BookingService.ListMine(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Cancel handles PATCH /bookings/{id}/cancel.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.BookingService.Cancel(r.Context(), middleware.GetUserIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	metrics.BookingsCancelledTotal.Inc()
	writeJSON(w, http.StatusOK, b)
}
