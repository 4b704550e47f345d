package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
)

// Scopes requested at sign-in.
var Scopes = []string{
	tasks.TasksScope,
	oauth2api.UserinfoEmailScope,
}

// NewConfig builds the OAuth configuration for the Google client.
// Returns domain.ErrNotConfigured when no client ID is set.
func NewConfig(client domain.OAuthClientConfig, redirectURL string) (*oauth2.Config, error) {
	if !client.IsConfigured() {
		return nil, fmt.Errorf("google client id: %w", domain.ErrNotConfigured)
	}
	return &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}, nil
}

// Flow is one authorization-code exchange in progress.
type Flow struct {
	config   *oauth2.Config
	state    string
	verifier string
	opts     []option.ClientOption
}

// Ensure Flow implements the LoginFlow interface.
var _ driving.LoginFlow = (*Flow)(nil)

// NewFlow starts a PKCE flow with a fresh state and verifier.
// opts are passed to the userinfo client.
func NewFlow(config *oauth2.Config, opts ...option.ClientOption) *Flow {
	return &Flow{
		config:   config,
		state:    uuid.NewString(),
		verifier: oauth2.GenerateVerifier(),
		opts:     opts,
	}
}

// State returns the CSRF state the callback must echo.
func (f *Flow) State() string {
	return f.state
}

// AuthURL returns the consent page URL to open in the browser.
func (f *Flow) AuthURL() string {
	return f.config.AuthCodeURL(f.state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(f.verifier),
	)
}

// Complete exchanges the authorization code and looks up the account's
// e-mail address.
func (f *Flow) Complete(ctx context.Context, code string) (*domain.Account, error) {
	token, err := f.config.Exchange(ctx, code, oauth2.VerifierOption(f.verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	opts := append([]option.ClientOption{option.WithTokenSource(f.config.TokenSource(ctx, token))}, f.opts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo has no email: %w", domain.ErrInvalidInput)
	}

	return &domain.Account{
		ID:    info.Email,
		Token: FromToken(token),
	}, nil
}

// ToToken converts stored credentials to an oauth2 token.
func ToToken(c domain.OAuthCredentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// FromToken converts an oauth2 token to stored credentials.
func FromToken(t *oauth2.Token) domain.OAuthCredentials {
	return domain.OAuthCredentials{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.Type(),
		Expiry:       t.Expiry,
	}
}
