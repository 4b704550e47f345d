package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/custodia-labs/notesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notesync/internal/core/domain"
)

// fakeGoogle serves a token endpoint and the userinfo endpoint.
type fakeGoogle struct {
	srv        *httptest.Server
	tokenCalls atomic.Int32
	lastForm   atomic.Value
	tokenCode  int
	email      string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{tokenCode: http.StatusOK, email: "user@example.com"}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		_ = r.ParseForm()
		f.lastForm.Store(r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		if f.tokenCode != http.StatusOK {
			w.WriteHeader(f.tokenCode)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  fmt.Sprintf("access-%d", n),
			"refresh_token": "refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"email": f.email})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGoogle) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:9999/callback",
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.srv.URL + "/auth",
			TokenURL:  f.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (f *fakeGoogle) form() url.Values {
	v, _ := f.lastForm.Load().(url.Values)
	return v
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(domain.OAuthClientConfig{}, "http://localhost/callback")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	cfg, err := NewConfig(domain.OAuthClientConfig{ClientID: "id", ClientSecret: "s"}, "http://localhost/callback")
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "http://localhost/callback", cfg.RedirectURL)
	assert.Equal(t, Scopes, cfg.Scopes)
	assert.Contains(t, cfg.Endpoint.TokenURL, "google")
}

func TestFlow_AuthURL(t *testing.T) {
	f := newFakeGoogle(t)
	flow := NewFlow(f.config())

	u, err := url.Parse(flow.AuthURL())
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, flow.State(), q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.NotEqual(t, flow.State(), NewFlow(f.config()).State())
}

func TestFlow_Complete(t *testing.T) {
	f := newFakeGoogle(t)
	flow := NewFlow(f.config(), option.WithEndpoint(f.srv.URL+"/"))

	account, err := flow.Complete(context.Background(), "the-code")

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", account.ID)
	assert.Equal(t, "access-1", account.Token.AccessToken)
	assert.Equal(t, "refresh", account.Token.RefreshToken)
	assert.False(t, account.Token.Expiry.IsZero())

	form := f.form()
	assert.Equal(t, "the-code", form.Get("code"))
	assert.NotEmpty(t, form.Get("code_verifier"))
}

func TestFlow_Complete_NoEmail(t *testing.T) {
	f := newFakeGoogle(t)
	f.email = ""

	_, err := NewFlow(f.config(), option.WithEndpoint(f.srv.URL+"/")).Complete(context.Background(), "code")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFlow_Complete_ExchangeFails(t *testing.T) {
	f := newFakeGoogle(t)
	f.tokenCode = http.StatusBadRequest

	_, err := NewFlow(f.config(), option.WithEndpoint(f.srv.URL+"/")).Complete(context.Background(), "code")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code")
}

func TestTokenConversion(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	creds := domain.OAuthCredentials{
		AccessToken:  "a",
		RefreshToken: "r",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}

	assert.Equal(t, creds, FromToken(ToToken(creds)))
}

func expiredAccount() *domain.Account {
	return &domain.Account{
		ID: "user@example.com",
		Token: domain.OAuthCredentials{
			AccessToken:  "stale",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(-time.Hour),
		},
	}
}

func TestTokenSource_RefreshesAndPersists(t *testing.T) {
	f := newFakeGoogle(t)
	store := memory.NewAccountStore()
	ctx := context.Background()
	account := expiredAccount()
	require.NoError(t, store.Save(ctx, *account))

	ts := NewTokenSource(ctx, f.config(), store, account)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh_token", f.form().Get("grant_type"))

	saved, err := store.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-1", saved.Token.AccessToken)
	assert.Equal(t, "refresh", saved.Token.RefreshToken)

	// Cached until close to expiry.
	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, int32(1), f.tokenCalls.Load())
}

func TestTokenSource_RefreshesInsideBuffer(t *testing.T) {
	f := newFakeGoogle(t)
	account := expiredAccount()
	account.Token.Expiry = time.Now().Add(refreshBuffer / 2)

	tok, err := NewTokenSource(context.Background(), f.config(), memory.NewAccountStore(), account).Token()

	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
}

func TestTokenSource_ValidTokenNotSaved(t *testing.T) {
	f := newFakeGoogle(t)
	store := memory.NewAccountStore()
	account := expiredAccount()
	account.Token.Expiry = time.Now().Add(time.Hour)

	tok, err := NewTokenSource(context.Background(), f.config(), store, account).Token()

	require.NoError(t, err)
	assert.Equal(t, "stale", tok.AccessToken)
	assert.Zero(t, f.tokenCalls.Load())
	_, err = store.Get(context.Background(), account.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTokenSource_RefreshRejected(t *testing.T) {
	f := newFakeGoogle(t)
	f.tokenCode = http.StatusBadRequest

	_, err := NewTokenSource(context.Background(), f.config(), memory.NewAccountStore(), expiredAccount()).Token()

	assert.ErrorIs(t, err, domain.ErrAuthExpired)
}

func TestNewTokenSourceFunc(t *testing.T) {
	f := newFakeGoogle(t)
	build := NewTokenSourceFunc(f.config(), memory.NewAccountStore())

	ts := build(context.Background(), expiredAccount())

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
}
