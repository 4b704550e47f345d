package driven

import (
	"context"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// CancellationToken is the cooperative cancellation flag of one sync run.
// The flag only moves from false to true.
type CancellationToken interface {
	// IsCancelled reports whether cancellation has been requested.
	IsCancelled() bool
}

// ProgressFunc receives human-readable status text during a run.
type ProgressFunc func(message string)

// SyncEngine performs the actual upload/download/merge against the remote service.
type SyncEngine interface {
	// Run performs one sync for account and blocks until it finishes.
	//
	// It must poll token at safe points and return domain.ErrSyncCancelled
	// promptly once the token is cancelled. It may call onProgress any number
	// of times. ctx is only cancelled when the host shuts down; cancellation
	// requested through the coordinator arrives through token, never ctx.
	Run(ctx context.Context, account *domain.Account, token CancellationToken, onProgress ProgressFunc) error
}
