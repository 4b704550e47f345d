package driven

import (
	"context"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// SyncStateStore persists the engine cursor and sync run history.
type SyncStateStore interface {
	// Save stores or updates sync state.
	Save(ctx context.Context, state domain.SyncState) error

	// Get retrieves sync state for an account.
	// Returns domain.ErrNotFound if the account never synced.
	Get(ctx context.Context, accountID string) (*domain.SyncState, error)

	// Delete removes sync state for an account.
	Delete(ctx context.Context, accountID string) error

	// RecordRun appends a finished run to the history.
	RecordRun(ctx context.Context, run domain.SyncRun) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
