package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/custodia-labs/notesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notesync/internal/core/domain"
)

func TestAccounts_BeginLogin_NotConfigured(t *testing.T) {
	a := NewAccounts(domain.OAuthClientConfig{}, memory.NewAccountStore(), memory.NewSyncStateStore())

	_, err := a.BeginLogin("http://127.0.0.1:1/callback")

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestAccounts_BeginLogin(t *testing.T) {
	a := NewAccounts(domain.OAuthClientConfig{ClientID: "id"}, memory.NewAccountStore(), memory.NewSyncStateStore())

	flow, err := a.BeginLogin("http://127.0.0.1:1/callback")

	require.NoError(t, err)
	assert.Contains(t, flow.AuthURL(), "accounts.google.com")
	assert.Contains(t, flow.AuthURL(), "redirect_uri=http%3A%2F%2F127.0.0.1%3A1%2Fcallback")
	assert.NotEmpty(t, flow.State())
}

func TestAccounts_CompleteLogin(t *testing.T) {
	f := newFakeGoogle(t)
	store := memory.NewAccountStore()
	a := NewAccounts(domain.OAuthClientConfig{ClientID: "id"}, store, memory.NewSyncStateStore())
	flow := NewFlow(f.config(), option.WithEndpoint(f.srv.URL+"/"))

	account, err := a.CompleteLogin(context.Background(), flow, "code")
	require.NoError(t, err)

	accounts, err := a.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, account.ID, accounts[0].ID)
	assert.Equal(t, "access-1", accounts[0].Token.AccessToken)
}

func TestAccounts_CompleteLogin_FlowError(t *testing.T) {
	f := newFakeGoogle(t)
	f.email = ""
	store := memory.NewAccountStore()
	a := NewAccounts(domain.OAuthClientConfig{ClientID: "id"}, store, memory.NewSyncStateStore())

	_, err := a.CompleteLogin(context.Background(), NewFlow(f.config(), option.WithEndpoint(f.srv.URL+"/")), "code")

	require.Error(t, err)
	accounts, _ := store.List(context.Background())
	assert.Empty(t, accounts)
}

func TestAccounts_Logout(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	states := memory.NewSyncStateStore()
	require.NoError(t, accounts.Save(ctx, domain.Account{ID: "a@example.com"}))
	require.NoError(t, states.Save(ctx, domain.SyncState{AccountID: "a@example.com", TaskListID: "list"}))
	a := NewAccounts(domain.OAuthClientConfig{}, accounts, states)

	require.NoError(t, a.Logout(ctx, "a@example.com"))

	_, err := accounts.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = states.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = a.Logout(ctx, "a@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
