package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/carebook/internal/models"
)

// PostgresUserRepository stores accounts in PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

const userColumns = `id, name, email, contact, address, location, nid, password_hash, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Contact, &a.Address, &a.Location,
		&a.NID, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateUser inserts a new account. A taken email yields ErrUserExists.
func (s *PostgresUserRepository) CreateUser(ctx context.Context, a *models.Account) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (id, name, email, contact, address, location, nid, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.Name, a.Email, a.Contact, a.Address, a.Location, a.NID, a.PasswordHash, a.CreatedAt)
	if isUniqueViolation(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// GetUserByEmail looks an account up by its login email.
func (s *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	a, err := scanAccount(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("GetUserByEmail: %w", err)
	}
	return a, err
}

// GetUserByID looks an account up by id.
func (s *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.Account, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	return a, err
}

// UpdateUser saves the mutable profile fields and the password hash.
func (s *PostgresUserRepository) UpdateUser(ctx context.Context, a *models.Account) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE users SET name = $2, contact = $3, address = $4, location = $5, password_hash = $6
		 WHERE id = $1
	`, a.ID, a.Name, a.Contact, a.Address, a.Location, a.PasswordHash)
	if err != nil {
		return fmt.Errorf("UpdateUser: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
