package mcp

import (
	"context"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// mockCoordinator is a mock implementation of driving.SyncCoordinator.
type mockCoordinator struct {
	syncing bool
	starts  int
	cancels int
	lastRun *domain.SyncRun
}

func (m *mockCoordinator) Start() bool {
	m.starts++
	if m.syncing {
		return false
	}
	m.syncing = true
	return true
}

func (m *mockCoordinator) Cancel() bool {
	m.cancels++
	return m.syncing
}

func (m *mockCoordinator) IsSyncing() bool {
	return m.syncing
}

func (m *mockCoordinator) CurrentProgress() string {
	return ""
}

func (m *mockCoordinator) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (m *mockCoordinator) LastRun() (domain.SyncRun, bool) {
	if m.lastRun == nil {
		return domain.SyncRun{}, false
	}
	return *m.lastRun, true
}

func (m *mockCoordinator) Shutdown(_ context.Context) error {
	return nil
}

// mockHistory is a mock implementation of driving.SyncHistory.
type mockHistory struct {
	runs []domain.SyncRun
	err  error
}

func (m *mockHistory) ListRuns(_ context.Context, _ int) ([]domain.SyncRun, error) {
	return m.runs, m.err
}
