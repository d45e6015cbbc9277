package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"finboard/internal/db"
)

// Postgres is the client-server backend, selected when DATABASE_URL is set.
type Postgres struct {
	*sqlStore
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		is_premium BOOLEAN NOT NULL DEFAULT FALSE,
		billing_ref TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS watchlist (
		id SERIAL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		ticker TEXT NOT NULL,
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, ticker)
	)`,
}

var postgresDialect = dialect{
	name:         "postgres",
	placeholder:  dollarPlaceholder,
	schema:       postgresSchema,
	isConflict:   isPostgresUniqueViolation,
	isConnError:  isConnError,
	isMissingRef: isPostgresForeignKeyViolation,
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	conn, err := db.Open(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", ErrUnavailable, err)
	}
	return &Postgres{sqlStore: &sqlStore{db: conn, d: postgresDialect}}, nil
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isPostgresForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func isConnError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
