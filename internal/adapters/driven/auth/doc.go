// Package auth resolves the signed-in account for a sync run and keeps its
// OAuth tokens fresh.
//
// Sign-in uses the authorization-code flow with PKCE against Google. Tokens
// refreshed during a sync are written back to the account store so the next
// run starts from the newest refresh token.
package auth
