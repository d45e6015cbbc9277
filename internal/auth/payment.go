package auth

import (
	"context"

	"finboard/internal/store"
)

// PaymentConfirmer decides whether a premium upgrade has been paid for.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, user *store.User) error
}

// MockConfirmer is a stub that approves every upgrade without contacting a
// payment provider. It never reads or writes the user's billing reference.
type MockConfirmer struct{}

func (MockConfirmer) Confirm(context.Context, *store.User) error { return nil }
