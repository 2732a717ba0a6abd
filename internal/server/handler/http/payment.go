package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/metrics"
	"github.com/atinyakov/carebook/internal/middleware"
	"github.com/atinyakov/carebook/internal/models"
)

// PaymentService defines the checkout operations required by PaymentHandler.
type PaymentService interface {
	CreateIntent(ctx context.Context, userID, bookingID string) (*models.PaymentIntent, error)
	Confirm(ctx context.Context, userID string, conf models.PaymentConfirmation) (*models.Booking, error)
}

// PaymentHandler serves the /payment endpoints.
type PaymentHandler struct {
	PaymentService PaymentService
	Logger         *zap.Logger
}

// CreateIntent handles POST /payment/create-payment-intent. Only the client
// secret is returned; the widget derives everything else from it.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookingID string `json:"bookingId"`
	}
	if !decode(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	pi, err := h.PaymentService.CreateIntent(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.BookingID)
	if err != nil {
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": pi.ClientSecret})
}

// Confirm handles POST /payment/confirm.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var conf models.PaymentConfirmation
	if !decode(r, &conf) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	b, err := h.PaymentService.Confirm(r.Context(), middleware.GetUserIDFromContext(r.Context()), conf)
	if err != nil {
		writeServiceError(w, orNop(h.Logger), err)
		return
	}
	metrics.PaymentsConfirmedTotal.Inc()
	writeJSON(w, http.StatusOK, b)
}
