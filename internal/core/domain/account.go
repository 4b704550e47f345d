package domain

import "time"

// Account is a signed-in remote account.
type Account struct {
	// ID is the account identifier, the user's e-mail address.
	ID string `json:"id"`

	// Token holds the OAuth tokens for the account.
	Token OAuthCredentials `json:"token"`

	// CreatedAt is when the account was first stored.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the tokens were last refreshed.
	UpdatedAt time.Time `json:"updated_at"`
}

// OAuthCredentials stores OAuth tokens for a specific user account.
type OAuthCredentials struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
}

// IsExpired returns true if the OAuth access token has expired.
func (c *OAuthCredentials) IsExpired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry)
}

// CanRefresh reports whether a refresh token is available.
func (c *OAuthCredentials) CanRefresh() bool {
	return c.RefreshToken != ""
}
