package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/atinyakov/carebook/internal/models"
)

func setupUsers(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresUserRepository(db), mock, func() { db.Close() }
}

var accountCols = []string{"id", "name", "email", "contact", "address", "location", "nid", "password_hash", "created_at"}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, cleanup := setupUsers(t)
	defer cleanup()

	now := time.Now()
	a := &models.Account{
		User: models.User{ID: "u1", Name: "A", Email: "a@b.com", Contact: "017"},
		NID:  "123", PasswordHash: "hash", CreatedAt: now,
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("u1", "A", "a@b.com", "017", "", "", "123", "hash", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateUser(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, mock, cleanup := setupUsers(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateUser(context.Background(), &models.Account{User: models.User{ID: "u1"}})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	repo, mock, cleanup := setupUsers(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("u1", "A", "a@b.com", "017", "Road 1", "Dhaka", "123", "hash", now))

	a, err := repo.GetUserByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != "u1" || a.PasswordHash != "hash" || a.Location != "Dhaka" {
		t.Errorf("unexpected account: %+v", a)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUsers(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("x@y.com").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetUserByEmail(context.Background(), "x@y.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByID_QueryError(t *testing.T) {
	repo, mock, cleanup := setupUsers(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("u1").
		WillReturnError(errors.New("conn reset"))

	_, err := repo.GetUserByID(context.Background(), "u1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	repo, mock, cleanup := setupUsers(t)
	defer cleanup()

	a := &models.Account{User: models.User{ID: "u1", Name: "A2"}, PasswordHash: "hash"}
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET`)).
		WithArgs("u1", "A2", "", "", "", "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpdateUser(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateUser(context.Background(), a); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
