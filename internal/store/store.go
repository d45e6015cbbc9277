// Package store persists user accounts and watchlists. Two backends share the
// Store interface: PostgreSQL when a connection URL is configured, SQLite
// otherwise. The choice is made once by Open.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrConflict    = errors.New("store: conflict")
	ErrUnavailable = errors.New("store: unavailable")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Premium      bool      `json:"is_premium"`
	BillingRef   *string   `json:"billing_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Store interface {
	// CreateUser inserts a user with the given hash. ErrConflict if the
	// username is taken.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	// GetUserByUsername returns ErrNotFound when no row matches.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	SetPremium(ctx context.Context, id string, premium bool) error

	// ListWatchlist returns the user's tickers in ascending order, never nil.
	ListWatchlist(ctx context.Context, userID string) ([]string, error)
	// AddWatchlist returns ErrConflict if the pair already exists and
	// ErrNotFound if the user does not.
	AddWatchlist(ctx context.Context, userID, ticker string) error
	// RemoveWatchlist succeeds whether or not the entry existed.
	RemoveWatchlist(ctx context.Context, userID, ticker string) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Dialect() string
	Close() error
}

// Open picks PostgreSQL when databaseURL is set and SQLite at sqlitePath
// otherwise.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		pg, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := OpenSQLite(ctx, sqlitePath)
	if err != nil {
		return nil, err
	}
	return lite, nil
}
