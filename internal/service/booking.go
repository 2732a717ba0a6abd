package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/carebook/internal/catalog"
	"github.com/atinyakov/carebook/internal/models"
	"github.com/atinyakov/carebook/internal/repository"
)

// BookingRepository defines the booking persistence needed by the services.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	GetBooking(ctx context.Context, userID, id string) (*models.Booking, error)
	SetStatus(ctx context.Context, id string, status, from models.BookingStatus) error
	MarkPaid(ctx context.Context, id, transactionID string) error
}

// BookingService implements booking creation, listing and cancellation.
type BookingService struct {
	repo BookingRepository
	now  func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(repo BookingRepository) *BookingService {
	return &BookingService{repo: repo, now: time.Now}
}

// Create prices and stores a new pending booking for userID. The total is
// always computed here from the catalogue.
func (s *BookingService) Create(ctx context.Context, userID string, req models.BookingRequest) (*models.Booking, error) {
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if err := check(req); err != nil {
		return nil, err
	}
	svc, ok := catalog.Lookup(req.ServiceID)
	if !ok {
		return nil, invalid("serviceId", "Service not found")
	}
	total, err := catalog.Quote(req.ServiceID, req.Duration)
	if errors.Is(err, catalog.ErrInvalidDuration) {
		return nil, invalid("duration", "duration must be at least 1 hour")
	}
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		ID:            uuid.NewString(),
		UserID:        userID,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		Duration:      req.Duration,
		Division:      req.Division,
		District:      req.District,
		City:          req.City,
		Area:          req.Area,
		Address:       req.Address,
		Location:      req.City + ", " + req.Area,
		TotalCost:     total,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListMine returns the bookings of userID.
func (s *BookingService) ListMine(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Cancel cancels a pending booking owned by userID.
func (s *BookingService) Cancel(ctx context.Context, userID, id string) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Booking not found")
	}
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case models.StatusCancelled:
		return nil, conflict("Booking already cancelled")
	case models.StatusConfirmed:
		return nil, conflict("Confirmed bookings cannot be cancelled")
	}

	if err := s.repo.SetStatus(ctx, id, models.StatusCancelled, models.StatusPending); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// status moved between the read and the write
			return nil, conflict("Booking can no longer be cancelled")
		}
		return nil, err
	}
	b.Status = models.StatusCancelled
	return b, nil
}
