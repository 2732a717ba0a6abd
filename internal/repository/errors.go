// Package repository provides the persistence implementations used by the
// booking server: PostgreSQL for users, tokens, bookings and payment
// intents, and Redis as an alternative token store.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to
	// the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when registering an email that is taken.
	ErrUserExists = errors.New("user already exists")
)

// uniqueViolation is the PostgreSQL error code for a unique constraint.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
