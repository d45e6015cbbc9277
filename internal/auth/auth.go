package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"finboard/internal/store"
)

var (
	ErrMissingFields      = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidSession     = errors.New("invalid session")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

type Options struct {
	Secret     string
	SessionTTL time.Duration
	// Payments confirms premium upgrades. Defaults to MockConfirmer.
	Payments   PaymentConfirmer
	BcryptCost int
}

type Service struct {
	store    store.Store
	secret   []byte
	ttl      time.Duration
	payments PaymentConfirmer
	cost     int
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(st store.Store, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.Payments == nil {
		opts.Payments = MockConfirmer{}
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:    st,
		secret:   []byte(opts.Secret),
		ttl:      opts.SessionTTL,
		payments: opts.Payments,
		cost:     opts.BcryptCost,
		now:      time.Now,
	}
}

// Register creates the account and returns a session token for it.
func (s *Service) Register(ctx context.Context, username, password string) (*store.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	if len(password) > maxPasswordBytes {
		return nil, "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	user, err := s.store.CreateUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate returns ErrInvalidCredentials for both an unknown username and
// a wrong password. Store failures are returned as-is.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*store.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same bcrypt work as a real check.
		_ = bcrypt.CompareHashAndPassword(s.fallbackHash(), []byte(password))
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) fallbackHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("finboard-unknown-user"), s.cost)
	})
	return s.dummyHash
}

// Upgrade flips the premium flag once the payment confirmer accepts, and
// returns a token carrying the new flag.
func (s *Service) Upgrade(ctx context.Context, userID string) (*store.User, string, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if err := s.payments.Confirm(ctx, user); err != nil {
		return nil, "", fmt.Errorf("confirm payment: %w", err)
	}
	if err := s.store.SetPremium(ctx, user.ID, true); err != nil {
		return nil, "", fmt.Errorf("set premium: %w", err)
	}
	user.Premium = true
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Premium  bool   `json:"premium"`
	jwt.RegisteredClaims
}

func (s *Service) IssueToken(user *store.User) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Premium:  user.Premium,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
