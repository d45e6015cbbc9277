package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"finboard/internal/db"
)

// SQLite is the embedded backend used when no DATABASE_URL is configured.
type SQLite struct {
	*sqlStore
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		is_premium BOOLEAN NOT NULL DEFAULT FALSE,
		billing_ref TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS watchlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		ticker TEXT NOT NULL,
		added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, ticker)
	)`,
}

var sqliteDialect = dialect{
	name:         "sqlite",
	schema:       sqliteSchema,
	isConflict:   isSQLiteUniqueViolation,
	isConnError:  isSQLiteConnError,
	isMissingRef: isSQLiteForeignKeyViolation,
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	conn, err := db.Open(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %w", ErrUnavailable, path, err)
	}
	return &SQLite{sqlStore: &sqlStore{db: conn, d: sqliteDialect}}, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqErr sqlite3.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	return sqErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isSQLiteForeignKeyViolation(err error) bool {
	var sqErr sqlite3.Error
	return errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func isSQLiteConnError(err error) bool {
	var sqErr sqlite3.Error
	if !errors.As(err, &sqErr) {
		return isConnError(err)
	}
	switch sqErr.Code {
	case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrNotADB:
		return true
	}
	return false
}
