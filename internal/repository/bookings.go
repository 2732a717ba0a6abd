package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/carebook/internal/models"
)

// PostgresBookingRepository stores bookings in PostgreSQL.
type PostgresBookingRepository struct {
	DB *sql.DB
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository.
func NewPostgresBookingRepository(db *sql.DB) *PostgresBookingRepository {
	return &PostgresBookingRepository{DB: db}
}

const bookingColumns = `id, user_id, service_id, service_name, duration, division, district, city, area,
	address, location, total_cost, status, payment_status, transaction_id, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var (
		b  models.Booking
		tx sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.ServiceID, &b.ServiceName, &b.Duration,
		&b.Division, &b.District, &b.City, &b.Area, &b.Address, &b.Location,
		&b.TotalCost, &b.Status, &b.PaymentStatus, &tx, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.TransactionID = tx.String
	return &b, nil
}

// CreateBooking inserts b.
func (s *PostgresBookingRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULL, $15)
	`, b.ID, b.UserID, b.ServiceID, b.ServiceName, b.Duration,
		b.Division, b.District, b.City, b.Area, b.Address, b.Location,
		b.TotalCost, b.Status, b.PaymentStatus, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateBooking: %w", err)
	}
	return nil
}

// ListByUser returns the bookings of userID, newest first.
func (s *PostgresBookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	return bookings, nil
}

// GetBooking returns the booking id owned by userID, or ErrNotFound.
func (s *PostgresBookingRepository) GetBooking(ctx context.Context, userID, id string) (*models.Booking, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND user_id = $2`, id, userID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetBooking: %w", err)
	}
	return b, nil
}

// SetStatus moves a booking to status if it is currently in one of from.
// It returns ErrNotFound when no row matched.
func (s *PostgresBookingRepository) SetStatus(ctx context.Context, id string, status models.BookingStatus, from models.BookingStatus) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE bookings SET status = $2 WHERE id = $1 AND status = $3`, id, status, from)
	if err != nil {
		return fmt.Errorf("SetStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid records a completed payment and confirms the booking.
func (s *PostgresBookingRepository) MarkPaid(ctx context.Context, id, transactionID string) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE bookings SET payment_status = $2, status = $3, transaction_id = $4
		 WHERE id = $1 AND payment_status = $5 AND status = $6
	`, id, models.PaymentPaid, models.StatusConfirmed, transactionID, models.PaymentUnpaid, models.StatusPending)
	if err != nil {
		return fmt.Errorf("MarkPaid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
