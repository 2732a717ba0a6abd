package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/carebook/internal/models"
)

// PostgresTokenRepository stores session tokens in PostgreSQL. Expired rows
// are removed by db.StartExpiredTokenCleaner.
type PostgresTokenRepository struct {
	DB *sql.DB
}

// NewPostgresTokenRepository creates a new PostgresTokenRepository.
func NewPostgresTokenRepository(db *sql.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{DB: db}
}

// SaveToken records an issued token.
func (s *PostgresTokenRepository) SaveToken(ctx context.Context, t models.Token) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		t.Value, t.UserID, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("SaveToken: %w", err)
	}
	return nil
}

// LookupToken returns the token row for value, or ErrNotFound.
func (s *PostgresTokenRepository) LookupToken(ctx context.Context, value string) (*models.Token, error) {
	t := models.Token{Value: value}
	err := s.DB.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM tokens WHERE token = $1`, value,
	).Scan(&t.UserID, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("LookupToken: %w", err)
	}
	return &t, nil
}

// DeleteToken revokes a token. Deleting an unknown token is not an error.
func (s *PostgresTokenRepository) DeleteToken(ctx context.Context, value string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM tokens WHERE token = $1`, value); err != nil {
		return fmt.Errorf("DeleteToken: %w", err)
	}
	return nil
}
