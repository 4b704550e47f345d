package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotConfigured", ErrNotConfigured},
		{"ErrSyncCancelled", ErrSyncCancelled},
		{"ErrAuthRequired", ErrAuthRequired},
		{"ErrAuthExpired", ErrAuthExpired},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrRemoteUnavailable", ErrRemoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrSyncCancelled_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("push notes: %w", ErrSyncCancelled)
	assert.True(t, errors.Is(wrapped, ErrSyncCancelled))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}
