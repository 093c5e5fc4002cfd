package session

import (
	"context"
	"errors"
	"fmt"

	"lsys/identity"
)

// Accounts looks accounts up by uid; *identity.Store satisfies it.
type Accounts interface {
	ByUID(uid int64) (identity.Account, bool)
}

type Resolver struct {
	Store    Store
	Accounts Accounts
}

// Resolve maps a cookie token to its account. A missing or unknown token, or
// one whose account is gone, yields ErrAuthRequired. Other store failures are
// returned wrapped so callers can log them.
func (r Resolver) Resolve(ctx context.Context, token string) (identity.Account, error) {
	if token == "" {
		return identity.Account{}, ErrAuthRequired
	}
	uid, err := r.Store.Get(ctx, token)
	if errors.Is(err, ErrNoSession) {
		return identity.Account{}, ErrAuthRequired
	}
	if err != nil {
		return identity.Account{}, fmt.Errorf("%w: %w", ErrAuthRequired, err)
	}
	acc, ok := r.Accounts.ByUID(uid)
	if !ok {
		return identity.Account{}, ErrAuthRequired
	}
	return acc, nil
}

// Issue creates a session for uid and returns its token.
func (r Resolver) Issue(ctx context.Context, uid int64) (string, error) {
	token := NewToken()
	if err := r.Store.Create(ctx, token, uid); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

func (r Resolver) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return r.Store.Delete(ctx, token)
}
