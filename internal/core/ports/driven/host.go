package driven

import (
	"context"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// HostLifecycle is notified when a sync run completes so the hosting
// process may release resources it kept alive only for the sync.
type HostLifecycle interface {
	// SyncFinished is called once per run, after the coordinator is idle again.
	SyncFinished(run domain.SyncRun)
}

// RunRecorder stores finished sync runs.
// SyncStateStore satisfies it.
type RunRecorder interface {
	// RecordRun appends a finished run to the history.
	RecordRun(ctx context.Context, run domain.SyncRun) error
}
