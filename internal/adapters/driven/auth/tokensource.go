package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/logger"
)

// refreshBuffer is how long before expiry a token is treated as stale.
const refreshBuffer = 5 * time.Minute

// TokenSource hands out access tokens for one account and saves every
// refreshed token back to the account store.
type TokenSource struct {
	ctx   context.Context
	store driven.AccountStore
	base  oauth2.TokenSource

	mu      sync.Mutex
	account domain.Account
}

// NewTokenSource creates a token source for account.
func NewTokenSource(ctx context.Context, config *oauth2.Config, store driven.AccountStore, account *domain.Account) *TokenSource {
	tok := ToToken(account.Token)
	if !tok.Expiry.IsZero() {
		// Refresh a little early so a request never leaves with a dying token.
		tok.Expiry = tok.Expiry.Add(-refreshBuffer)
	}
	return &TokenSource{
		ctx:     ctx,
		store:   store,
		base:    config.TokenSource(ctx, tok),
		account: *account,
	}
}

// Token returns a valid token, refreshing it when needed.
func (s *TokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("refresh token for %s: %w", s.account.ID, domain.ErrAuthExpired)
		}
		return nil, fmt.Errorf("refresh token for %s: %w", s.account.ID, err)
	}
	if tok.AccessToken == s.account.Token.AccessToken {
		return tok, nil
	}

	s.account.Token = FromToken(tok)
	s.account.UpdatedAt = time.Now()
	if err := s.store.Save(s.ctx, s.account); err != nil {
		// The token is still usable for this run.
		logger.Warn("save refreshed token for %s: %v", s.account.ID, err)
	} else {
		logger.Debug("refreshed token for %s", s.account.ID)
	}
	return tok, nil
}

// NewTokenSourceFunc returns a constructor of persisting token sources,
// suitable for building API clients per run.
func NewTokenSourceFunc(config *oauth2.Config, store driven.AccountStore) func(context.Context, *domain.Account) oauth2.TokenSource {
	return func(ctx context.Context, account *domain.Account) oauth2.TokenSource {
		return NewTokenSource(ctx, config, store, account)
	}
}
