package driving

import (
	"context"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// LoginFlow is one browser sign-in in progress.
type LoginFlow interface {
	// State returns the CSRF state the redirect must echo.
	State() string

	// AuthURL returns the consent page to open.
	AuthURL() string

	// Complete exchanges the authorization code for the signed-in account.
	Complete(ctx context.Context, code string) (*domain.Account, error)
}

// AccountService manages signed-in accounts.
type AccountService interface {
	// BeginLogin starts a sign-in that redirects to redirectURI.
	// Returns domain.ErrNotConfigured when no OAuth client is set up.
	BeginLogin(redirectURI string) (LoginFlow, error)

	// CompleteLogin finishes flow with code and stores the account.
	CompleteLogin(ctx context.Context, flow LoginFlow, code string) (*domain.Account, error)

	// List returns the stored accounts, oldest first.
	List(ctx context.Context) ([]domain.Account, error)

	// Logout forgets an account and its sync cursor.
	Logout(ctx context.Context, id string) error
}
