package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/client/api"
	"github.com/atinyakov/carebook/internal/models"
)

// Result is what a payment widget reports back after the user acted on a
// client secret.
type Result struct {
	Status        string
	TransactionID string
}

// Widget collects payment details for a client secret. It is the boundary
// to the payment provider and only ever sees the secret, never the session.
type Widget interface {
	Confirm(ctx context.Context, clientSecret string, amount int64) (Result, error)
}

// List is the signed-in user's bookings as last fetched. Cancel and Pay
// change an entry only after the server accepted the change.
type List struct {
	api  API
	gate Gate
	log  *zap.Logger

	mu    sync.RWMutex
	items []models.Booking
}

// NewList returns an empty list. Call Refresh to fill it.
func NewList(a API, gate Gate, log *zap.Logger) *List {
	if log == nil {
		log = zap.NewNop()
	}
	return &List{api: a, gate: gate, log: log}
}

// Refresh replaces the list with the server's copy.
func (l *List) Refresh(ctx context.Context) error {
	if !l.gate.Authenticated() {
		return notAuthenticated("see your bookings")
	}
	items, err := l.api.MyBookings(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return nil
}

// Items returns a copy of the current entries.
func (l *List) Items() []models.Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Booking, len(l.items))
	copy(out, l.items)
	return out
}

// Get returns the entry with the given id.
func (l *List) Get(id string) (models.Booking, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.items {
		if b.ID == id {
			return b, true
		}
	}
	return models.Booking{}, false
}

// Reset forgets every entry, e.g. after logout.
func (l *List) Reset() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

// Cancel cancels the booking with the given id. The entry is marked
// Cancelled only after the server confirms; on any failure it is unchanged.
func (l *List) Cancel(ctx context.Context, id string) error {
	if !l.gate.Authenticated() {
		return notAuthenticated("cancel a booking")
	}
	b, ok := l.Get(id)
	if !ok {
		return &api.ValidationError{Field: "id", Message: fmt.Sprintf("no booking with id %q", id)}
	}
	if b.Status == models.StatusCancelled {
		return &api.ValidationError{Field: "id", Message: "booking is already cancelled"}
	}

	updated, err := l.api.CancelBooking(ctx, id)
	if err != nil {
		l.log.Info("cancel failed", zap.String("booking", id), zap.Error(err))
		return err
	}
	l.update(id, func(b *models.Booking) {
		b.Status = models.StatusCancelled
		if updated != nil && updated.Status != "" {
			b.Status = updated.Status
		}
	})
	l.log.Info("booking cancelled", zap.String("booking", id))
	return nil
}

// Pay runs checkout for the booking with the given id: request a client
// secret, hand it to the widget, and report a succeeded transaction back to
// the server. The entry is updated only after the server accepted it.
func (l *List) Pay(ctx context.Context, id string, w Widget) (Result, error) {
	if !l.gate.Authenticated() {
		return Result{}, notAuthenticated("pay for a booking")
	}
	b, ok := l.Get(id)
	if !ok {
		return Result{}, &api.ValidationError{Field: "id", Message: fmt.Sprintf("no booking with id %q", id)}
	}
	switch {
	case b.Status == models.StatusCancelled:
		return Result{}, &api.ValidationError{Field: "id", Message: "cancelled bookings cannot be paid"}
	case b.PaymentStatus == models.PaymentPaid:
		return Result{}, &api.ValidationError{Field: "id", Message: "booking is already paid"}
	}

	secret, err := l.api.CreatePaymentIntent(ctx, id)
	if err != nil {
		return Result{}, err
	}
	res, err := w.Confirm(ctx, secret, b.TotalCost)
	if err != nil {
		return Result{}, fmt.Errorf("payment widget: %w", err)
	}
	if res.Status != models.IntentSucceeded {
		return res, &PaymentError{Status: res.Status}
	}

	updated, err := l.api.ConfirmPayment(ctx, models.PaymentConfirmation{
		BookingID:     id,
		TransactionID: res.TransactionID,
	})
	if err != nil {
		l.log.Error("payment succeeded but confirmation failed",
			zap.String("booking", id), zap.String("transaction", res.TransactionID), zap.Error(err))
		return res, err
	}
	l.update(id, func(b *models.Booking) {
		b.PaymentStatus = models.PaymentPaid
		b.Status = models.StatusConfirmed
		b.TransactionID = res.TransactionID
		if updated != nil && updated.Status != "" {
			b.Status = updated.Status
		}
	})
	l.log.Info("booking paid", zap.String("booking", id), zap.String("transaction", res.TransactionID))
	return res, nil
}

func (l *List) update(id string, fn func(*models.Booking)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].ID == id {
			fn(&l.items[i])
			return
		}
	}
}

// PaymentError reports a widget outcome other than success.
type PaymentError struct {
	Status string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment not completed (status %s)", e.Status)
}

// IntentIDFromClientSecret returns the intent id a client secret was
// issued for ("pi_123_secret_abc" -> "pi_123").
func IntentIDFromClientSecret(secret string) string {
	id, _, found := strings.Cut(secret, "_secret_")
	if !found {
		return ""
	}
	return id
}
