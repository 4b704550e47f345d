package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
)

// Ensure Accounts implements the AccountService interface.
var _ driving.AccountService = (*Accounts)(nil)

// Accounts signs accounts in and out.
type Accounts struct {
	client   domain.OAuthClientConfig
	accounts driven.AccountStore
	states   driven.SyncStateStore
	opts     []option.ClientOption
}

// NewAccounts creates the account service. opts are passed to the
// userinfo client used at sign-in.
func NewAccounts(
	client domain.OAuthClientConfig,
	accounts driven.AccountStore,
	states driven.SyncStateStore,
	opts ...option.ClientOption,
) *Accounts {
	return &Accounts{
		client:   client,
		accounts: accounts,
		states:   states,
		opts:     opts,
	}
}

// BeginLogin starts a PKCE sign-in.
func (a *Accounts) BeginLogin(redirectURI string) (driving.LoginFlow, error) {
	config, err := NewConfig(a.client, redirectURI)
	if err != nil {
		return nil, err
	}
	return NewFlow(config, a.opts...), nil
}

// CompleteLogin exchanges code and stores the account. Signing in again
// with the same account replaces its tokens.
func (a *Accounts) CompleteLogin(ctx context.Context, flow driving.LoginFlow, code string) (*domain.Account, error) {
	account, err := flow.Complete(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := a.accounts.Save(ctx, *account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return account, nil
}

// List returns the stored accounts.
func (a *Accounts) List(ctx context.Context) ([]domain.Account, error) {
	return a.accounts.List(ctx)
}

// Logout removes the account and its sync cursor. Local notes are kept.
func (a *Accounts) Logout(ctx context.Context, id string) error {
	if _, err := a.accounts.Get(ctx, id); err != nil {
		return fmt.Errorf("get account %s: %w", id, err)
	}
	if err := a.states.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete sync state: %w", err)
	}
	if err := a.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
