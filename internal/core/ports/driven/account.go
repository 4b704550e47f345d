package driven

import (
	"context"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// AccountResolver resolves the account a sync run is associated with.
// The coordinator calls it once per run, before the engine starts.
type AccountResolver interface {
	// Resolve returns the account to sync.
	// Returns domain.ErrAuthRequired when no account is signed in.
	Resolve(ctx context.Context) (*domain.Account, error)
}

// AccountStore persists signed-in accounts.
type AccountStore interface {
	// Save stores or updates an account.
	Save(ctx context.Context, account domain.Account) error

	// Get retrieves an account by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Account, error)

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]domain.Account, error)

	// Delete removes an account.
	Delete(ctx context.Context, id string) error
}
