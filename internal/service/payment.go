package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/carebook/internal/catalog"
	"github.com/atinyakov/carebook/internal/models"
	"github.com/atinyakov/carebook/internal/repository"
)

// PaymentProvider issues and inspects payment intents at an external
// processor.
type PaymentProvider interface {
	// CreateIntent authorises a payment of amount and returns the intent id
	// and the client secret handed to the payment widget.
	CreateIntent(ctx context.Context, amount int64, currency string) (id, clientSecret string, err error)
	// IntentStatus reports the processor's view of an intent.
	IntentStatus(ctx context.Context, id string) (string, error)
}

// PaymentRepository stores payment intents.
type PaymentRepository interface {
	CreateIntent(ctx context.Context, pi *models.PaymentIntent) error
	GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error)
	SetIntentStatus(ctx context.Context, id, status string) error
}

// PaymentService runs checkout: issue an intent for a booking, then
// confirm the booking once the processor reports success.
type PaymentService struct {
	bookings BookingRepository
	payments PaymentRepository
	provider PaymentProvider
	now      func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(bookings BookingRepository, payments PaymentRepository, provider PaymentProvider) *PaymentService {
	return &PaymentService{bookings: bookings, payments: payments, provider: provider, now: time.Now}
}

// CreateIntent issues a payment intent for the unpaid booking bookingID.
func (s *PaymentService) CreateIntent(ctx context.Context, userID, bookingID string) (*models.PaymentIntent, error) {
	if bookingID == "" {
		return nil, invalid("bookingId", "bookingId is required")
	}
	b, err := s.payable(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	id, secret, err := s.provider.CreateIntent(ctx, b.TotalCost, catalog.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	pi := &models.PaymentIntent{
		ID:           id,
		BookingID:    b.ID,
		UserID:       userID,
		Amount:       b.TotalCost,
		Currency:     catalog.Currency,
		ClientSecret: secret,
		Status:       models.IntentRequiresPayment,
		CreatedAt:    s.now(),
	}
	if err := s.payments.CreateIntent(ctx, pi); err != nil {
		return nil, err
	}
	return pi, nil
}

// Confirm marks the booking paid once the intent named by the transaction
// id has succeeded at the processor.
func (s *PaymentService) Confirm(ctx context.Context, userID string, conf models.PaymentConfirmation) (*models.Booking, error) {
	if err := check(conf); err != nil {
		return nil, err
	}
	pi, err := s.payments.GetIntent(ctx, conf.TransactionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("transactionId", "Unknown transaction")
	}
	if err != nil {
		return nil, err
	}
	if pi.UserID != userID || pi.BookingID != conf.BookingID {
		return nil, invalid("transactionId", "Transaction does not belong to this booking")
	}

	b, err := s.bookings.GetBooking(ctx, userID, conf.BookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Booking not found")
	}
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus == models.PaymentPaid {
		if b.TransactionID == conf.TransactionID {
			return b, nil
		}
		return nil, conflict("Booking already paid")
	}

	status, err := s.provider.IntentStatus(ctx, pi.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if status != models.IntentSucceeded {
		return nil, conflict("Payment has not succeeded")
	}
	if err := s.payments.SetIntentStatus(ctx, pi.ID, status); err != nil {
		return nil, err
	}
	if err := s.bookings.MarkPaid(ctx, b.ID, pi.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, conflict("Booking can no longer be paid")
		}
		return nil, err
	}

	b.PaymentStatus = models.PaymentPaid
	b.Status = models.StatusConfirmed
	b.TransactionID = pi.ID
	return b, nil
}

func (s *PaymentService) payable(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, userID, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Booking not found")
	}
	if err != nil {
		return nil, err
	}
	switch {
	case b.Status == models.StatusCancelled:
		return nil, conflict("Cancelled bookings cannot be paid")
	case b.PaymentStatus == models.PaymentPaid:
		return nil, conflict("Booking already paid")
	}
	return b, nil
}

// SandboxProvider is a PaymentProvider for development. Its intents are
// captured automatically and it keeps no state: any id it could have issued
// reports succeeded, so intents stored before a restart can still be
// confirmed. PaymentService only asks about intents it has stored.
type SandboxProvider struct{}

// NewSandboxProvider returns a sandbox.
func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{}
}

const sandboxPrefix = "pi_"

func (p *SandboxProvider) CreateIntent(_ context.Context, amount int64, currency string) (string, string, error) {
	if amount <= 0 {
		return "", "", errors.New("amount must be positive")
	}
	if currency == "" {
		return "", "", errors.New("currency is required")
	}
	id := sandboxPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	return id, id + "_secret_" + hex.EncodeToString(b), nil
}

func (p *SandboxProvider) IntentStatus(_ context.Context, id string) (string, error) {
	raw, ok := strings.CutPrefix(id, sandboxPrefix)
	if !ok || len(raw) != 32 {
		return "", fmt.Errorf("no such intent %q", id)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("no such intent %q", id)
	}
	return models.IntentSucceeded, nil
}
