package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finboard/internal/store"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, "", filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, Options{Secret: "test-secret", SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost}), st
}

func TestRegisterStoresHash(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	user, token, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, user.Premium)

	stored, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", stored.Username)
	require.NotEqual(t, "pw123", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw123")))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Register(context.Background(), "  ", "pw")
	require.ErrorIs(t, err, ErrMissingFields)
	_, _, err = svc.Register(context.Background(), "alice", "")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestRegisterPasswordTooLong(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	_, _, err := svc.Register(ctx, "carol", strings.Repeat("x", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
	_, err = st.GetUserByUsername(ctx, "carol")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = svc.Register(ctx, "carol", strings.Repeat("x", 72))
	require.NoError(t, err)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, _, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, "alice", "other")
	require.ErrorIs(t, err, ErrUsernameTaken)

	// The original password still works.
	_, _, err = svc.Authenticate(ctx, "alice", "pw123")
	require.NoError(t, err)
}

func TestAuthenticateIsGeneric(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, _, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)

	_, _, wrongPw := svc.Authenticate(ctx, "alice", "wrongpw")
	_, _, unknown := svc.Authenticate(ctx, "mallory", "pw123")
	require.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	require.ErrorIs(t, unknown, ErrInvalidCredentials)
	require.Equal(t, wrongPw.Error(), unknown.Error())
}

func TestAuthenticateStoreDown(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	require.NoError(t, st.Close())

	_, _, err := svc.Authenticate(ctx, "alice", "pw123")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	user, token, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.False(t, claims.Premium)

	_, err = svc.ParseToken(token + "x")
	require.ErrorIs(t, err, ErrInvalidSession)

	other := NewService(nil, Options{Secret: "different"})
	_, err = other.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestTokenExpires(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	user, _, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := svc.IssueToken(user)
	require.NoError(t, err)
	_, err = svc.ParseToken(stale)
	require.ErrorIs(t, err, ErrInvalidSession)
}

type refusingConfirmer struct{}

func (refusingConfirmer) Confirm(context.Context, *store.User) error {
	return errors.New("card declined")
}

func TestUpgrade(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user, _, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)

	upgraded, token, err := svc.Upgrade(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, upgraded.Premium)
	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.True(t, claims.Premium)

	stored, err := st.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, stored.Premium)
	require.Nil(t, stored.BillingRef)
}

func TestUpgradeRefused(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	svc.payments = refusingConfirmer{}
	user, _, err := svc.Register(ctx, "alice", "pw123")
	require.NoError(t, err)

	_, _, err = svc.Upgrade(ctx, user.ID)
	require.Error(t, err)
	stored, err := st.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, stored.Premium)
}

func TestSeedFromFile(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	_, _, err := svc.Register(ctx, "existing", "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`users:
  - username: demo
    password: demo123
    premium: true
  - username: existing
    password: changed
  - username: nopass
`), 0o644))

	n, err := svc.SeedFromFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	demo, err := st.GetUserByUsername(ctx, "demo")
	require.NoError(t, err)
	require.True(t, demo.Premium)

	_, err = st.GetUserByUsername(ctx, "nopass")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = svc.Authenticate(ctx, "existing", "pw")
	require.NoError(t, err)
}
