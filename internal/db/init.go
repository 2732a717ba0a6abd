// Package db opens the PostgreSQL database, creates the schema and runs
// background maintenance.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    contact       TEXT NOT NULL DEFAULT '',
    address       TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    nid           TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tokens (
    token      TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS tokens_expires_at_idx ON tokens (expires_at);

CREATE TABLE IF NOT EXISTS bookings (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    service_id     TEXT NOT NULL,
    service_name   TEXT NOT NULL,
    duration       INTEGER NOT NULL CHECK (duration > 0),
    division       TEXT NOT NULL,
    district       TEXT NOT NULL,
    city           TEXT NOT NULL,
    area           TEXT NOT NULL,
    address        TEXT NOT NULL,
    location       TEXT NOT NULL,
    total_cost     BIGINT NOT NULL,
    status         TEXT NOT NULL,
    payment_status TEXT NOT NULL,
    transaction_id TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS payment_intents (
    id            TEXT PRIMARY KEY,
    booking_id    TEXT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amount        BIGINT NOT NULL,
    currency      TEXT NOT NULL,
    client_secret TEXT NOT NULL,
    status        TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// InitPostgres opens dsn, checks the connection and creates the schema.
func InitPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate pings db and applies the schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
