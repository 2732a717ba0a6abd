// Package booking holds the session consumers of the client: the booking
// form, the "my bookings" list and the checkout flow. They read the session
// to gate access and never modify it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/catalog"
	"github.com/atinyakov/carebook/internal/client/api"
	"github.com/atinyakov/carebook/internal/models"
)

// Gate reports whether a complete session is held. *session.Manager
// implements it.
type Gate interface {
	Authenticated() bool
}

// API is the slice of the remote API the consumers call.
type API interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	MyBookings(ctx context.Context) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id string) (*models.Booking, error)
	CreatePaymentIntent(ctx context.Context, bookingID string) (string, error)
	ConfirmPayment(ctx context.Context, conf models.PaymentConfirmation) (*models.Booking, error)
}

// Quote validates a booking form and returns the request to submit together
// with the total cost shown to the user.
func Quote(req models.BookingRequest) (models.BookingRequest, int64, error) {
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	for _, f := range []*string{&req.Division, &req.District, &req.City, &req.Area, &req.Address} {
		*f = strings.TrimSpace(*f)
	}
	if err := api.Validate(req); err != nil {
		return req, 0, err
	}
	total, err := catalog.Quote(req.ServiceID, req.Duration)
	switch {
	case errors.Is(err, catalog.ErrUnknownService):
		return req, 0, &api.ValidationError{Field: "serviceId", Message: fmt.Sprintf("unknown service %q", req.ServiceID)}
	case errors.Is(err, catalog.ErrInvalidDuration):
		return req, 0, &api.ValidationError{Field: "duration", Message: "duration must be at least 1"}
	case err != nil:
		return req, 0, err
	}
	return req, total, nil
}

func notAuthenticated(action string) error {
	return &api.AuthError{Reason: api.ReasonNotAuthenticated, Message: "please log in to " + action}
}

// Service submits new bookings.
type Service struct {
	api  API
	gate Gate
	log  *zap.Logger
}

// NewService returns a booking Service.
func NewService(a API, gate Gate, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: a, gate: gate, log: log}
}

// Create validates and submits req. Without a session nothing is sent.
func (s *Service) Create(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if !s.gate.Authenticated() {
		return nil, notAuthenticated("book a service")
	}
	req, total, err := Quote(req)
	if err != nil {
		return nil, err
	}

	b, err := s.api.CreateBooking(ctx, req)
	if err != nil {
		s.log.Info("booking failed", zap.String("service", req.ServiceID), zap.Error(err))
		return nil, err
	}
	if b.TotalCost != total {
		s.log.Warn("server total differs from local quote",
			zap.Int64("local", total), zap.Int64("server", b.TotalCost))
	}
	s.log.Info("booking created", zap.String("booking", b.ID), zap.Int64("total", b.TotalCost))
	return b, nil
}
