package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/carebook/internal/models"
)

// PostgresPaymentRepository stores payment intents in PostgreSQL.
type PostgresPaymentRepository struct {
	DB *sql.DB
}

// NewPostgresPaymentRepository creates a new PostgresPaymentRepository.
func NewPostgresPaymentRepository(db *sql.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{DB: db}
}

// CreateIntent records an intent issued by the provider.
func (s *PostgresPaymentRepository) CreateIntent(ctx context.Context, pi *models.PaymentIntent) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO payment_intents (id, booking_id, user_id, amount, currency, client_secret, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pi.ID, pi.BookingID, pi.UserID, pi.Amount, pi.Currency, pi.ClientSecret, pi.Status, pi.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateIntent: %w", err)
	}
	return nil
}

// GetIntent returns the intent id, or ErrNotFound.
func (s *PostgresPaymentRepository) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, booking_id, user_id, amount, currency, client_secret, status, created_at
		  FROM payment_intents WHERE id = $1
	`, id).Scan(&pi.ID, &pi.BookingID, &pi.UserID, &pi.Amount, &pi.Currency, &pi.ClientSecret, &pi.Status, &pi.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetIntent: %w", err)
	}
	return &pi, nil
}

// SetIntentStatus updates the stored status of an intent.
func (s *PostgresPaymentRepository) SetIntentStatus(ctx context.Context, id, status string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE payment_intents SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("SetIntentStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
