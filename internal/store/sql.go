package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"finboard/internal/db"
)

// dialect holds everything that differs between the two backends.
type dialect struct {
	name string
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
	schema      []string
	isConflict  func(error) bool
	isConnError func(error) bool

	// isMissingRef matches foreign-key violations, such as a watchlist row
	// for a user that no longer exists.
	isMissingRef func(error) bool
}

// sqlStore implements the dialect-agnostic queries. Queries are written with
// '?' and rebound per dialect.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func (s *sqlStore) rebind(q string) string {
	if s.d.placeholder == nil {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString(s.d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case s.d.isConflict(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case s.d.isMissingRef != nil && s.d.isMissingRef(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, sql.ErrConnDone), s.d.isConnError(err):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func (s *sqlStore) Dialect() string { return s.d.name }

func (s *sqlStore) Close() error { return s.db.Close() }

func (s *sqlStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *sqlStore) Migrate(ctx context.Context) error {
	return s.classify(db.RunMigrations(ctx, s.db, s.d.schema))
}

const userColumns = "id, username, password_hash, is_premium, billing_ref, created_at"

func (s *sqlStore) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	q := s.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, NULL, ?)`)
	if _, err := s.db.ExecContext(ctx, q, u.ID, u.Username, u.PasswordHash, u.Premium, u.CreatedAt); err != nil {
		return nil, s.classify(err)
	}
	return u, nil
}

func (s *sqlStore) getUser(ctx context.Context, column, value string) (*User, error) {
	q := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)
	var (
		u       User
		billing sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, value).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Premium, &billing, &u.CreatedAt)
	if err != nil {
		return nil, s.classify(err)
	}
	if billing.Valid {
		ref := billing.String
		u.BillingRef = &ref
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *sqlStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *sqlStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *sqlStore) SetPremium(ctx context.Context, id string, premium bool) error {
	q := s.rebind(`UPDATE users SET is_premium = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, premium, id)
	if err != nil {
		return s.classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) ListWatchlist(ctx context.Context, userID string) ([]string, error) {
	q := s.rebind(`SELECT ticker FROM watchlist WHERE user_id = ? ORDER BY ticker`)
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, s.classify(err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, s.classify(err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(err)
	}
	return tickers, nil
}

func (s *sqlStore) AddWatchlist(ctx context.Context, userID, ticker string) error {
	q := s.rebind(`INSERT INTO watchlist (user_id, ticker, added_at) VALUES (?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q, userID, ticker, time.Now().UTC())
	return s.classify(err)
}

func (s *sqlStore) RemoveWatchlist(ctx context.Context, userID, ticker string) error {
	q := s.rebind(`DELETE FROM watchlist WHERE user_id = ? AND ticker = ?`)
	_, err := s.db.ExecContext(ctx, q, userID, ticker)
	return s.classify(err)
}

func dollarPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}
