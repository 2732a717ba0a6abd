package service

import (
	"context"
	"sync"

	"github.com/atinyakov/carebook/internal/models"
	"github.com/atinyakov/carebook/internal/repository"
)

// memUsers is an in-memory UserRepository.
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]models.Account
	failErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]models.Account{}} }

func (m *memUsers) CreateUser(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	for _, u := range m.byID {
		if u.Email == a.Email {
			return repository.ErrUserExists
		}
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) UpdateUser(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[a.ID] = *a
	return nil
}

// memTokens is an in-memory TokenRepository.
type memTokens struct {
	mu     sync.Mutex
	tokens map[string]models.Token
}

func newMemTokens() *memTokens { return &memTokens{tokens: map[string]models.Token{}} }

func (m *memTokens) SaveToken(_ context.Context, t models.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Value] = t
	return nil
}

func (m *memTokens) LookupToken(_ context.Context, value string) (*models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[value]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m *memTokens) DeleteToken(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, value)
	return nil
}

// memBookings is an in-memory BookingRepository.
type memBookings struct {
	mu    sync.Mutex
	items map[string]models.Booking
}

func newMemBookings(items ...models.Booking) *memBookings {
	m := &memBookings{items: map[string]models.Booking{}}
	for _, b := range items {
		m.items[b.ID] = b
	}
	return m
}

func (m *memBookings) CreateBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[b.ID] = *b
	return nil
}

func (m *memBookings) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Booking{}
	for _, b := range m.items {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBookings) GetBooking(_ context.Context, userID, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok || b.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (m *memBookings) SetStatus(_ context.Context, id string, status, from models.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok || b.Status != from {
		return repository.ErrNotFound
	}
	b.Status = status
	m.items[id] = b
	return nil
}

func (m *memBookings) MarkPaid(_ context.Context, id, tx string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok || b.PaymentStatus != models.PaymentUnpaid || b.Status != models.StatusPending {
		return repository.ErrNotFound
	}
	b.PaymentStatus = models.PaymentPaid
	b.Status = models.StatusConfirmed
	b.TransactionID = tx
	m.items[id] = b
	return nil
}

// memPayments is an in-memory PaymentRepository.
type memPayments struct {
	mu      sync.Mutex
	intents map[string]models.PaymentIntent
}

func newMemPayments() *memPayments { return &memPayments{intents: map[string]models.PaymentIntent{}} }

func (m *memPayments) CreateIntent(_ context.Context, pi *models.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[pi.ID] = *pi
	return nil
}

func (m *memPayments) GetIntent(_ context.Context, id string) (*models.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pi, nil
}

func (m *memPayments) SetIntentStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return repository.ErrNotFound
	}
	pi.Status = status
	m.intents[id] = pi
	return nil
}
