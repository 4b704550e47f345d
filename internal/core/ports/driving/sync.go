package driving

import (
	"context"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// SyncCoordinator drives at most one sync run at a time.
// None of its methods return errors: starting while running and
// cancelling while idle are no-ops, and run failures surface through
// progress messages and LastRun.
type SyncCoordinator interface {
	// Start begins a sync if none is running and reports whether it did.
	// It never waits for the run to finish.
	Start() bool

	// Cancel requests cooperative cancellation of the running sync and
	// reports whether a run was there to cancel.
	Cancel() bool

	// IsSyncing reports whether a run is in flight.
	IsSyncing() bool

	// CurrentProgress returns the last published progress message.
	CurrentProgress() string

	// Done returns a channel closed when the current run completes.
	// When idle the returned channel is already closed.
	Done() <-chan struct{}

	// LastRun returns the most recent finished run, if any.
	LastRun() (domain.SyncRun, bool)

	// Shutdown cancels the current run and waits for it to complete
	// or for ctx to expire.
	Shutdown(ctx context.Context) error
}

// SyncHistory lists finished sync runs.
type SyncHistory interface {
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
