// Package session maps opaque cookie tokens to account ids.
//
// Tokens are minted only on a successful login or registration and removed on
// logout. The redis store keeps them across restarts; the memory store is for
// single-process setups and tests.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session token.
const CookieName = "lsys-uuid"

var (
	ErrNoSession    = errors.New("no such session")
	ErrAuthRequired = errors.New("authentication required")
)

type Store interface {
	Create(ctx context.Context, token string, uid int64) error
	// Get returns ErrNoSession for unknown or expired tokens.
	Get(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, uid int64) error
}

// NewToken returns a fresh random session token.
func NewToken() string { return uuid.NewString() }
