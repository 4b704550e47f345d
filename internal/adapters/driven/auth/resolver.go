package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
)

// Ensure Resolver implements the AccountResolver interface.
var _ driven.AccountResolver = (*Resolver)(nil)

// Resolver picks the account a sync run works on.
type Resolver struct {
	store     driven.AccountStore
	preferred string
}

// NewResolver creates a resolver over store. A non-empty preferred ID
// selects that account; otherwise the oldest stored account is used.
func NewResolver(store driven.AccountStore, preferred string) *Resolver {
	return &Resolver{
		store:     store,
		preferred: preferred,
	}
}

// Resolve returns the account to sync.
func (r *Resolver) Resolve(ctx context.Context) (*domain.Account, error) {
	if r.preferred != "" {
		account, err := r.store.Get(ctx, r.preferred)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", r.preferred, domain.ErrAuthRequired)
		}
		if err != nil {
			return nil, fmt.Errorf("get account %s: %w", r.preferred, err)
		}
		return account, nil
	}

	accounts, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, domain.ErrAuthRequired
	}
	return &accounts[0], nil
}
