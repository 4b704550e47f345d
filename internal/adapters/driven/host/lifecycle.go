// Package host implements the hosting process's side of the sync lifecycle.
package host

import (
	"sync"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/logger"
)

// Ensure Process implements the HostLifecycle interface.
var _ driven.HostLifecycle = (*Process)(nil)

// Process is notified when runs finish. In exit-when-idle mode the first
// finished run releases the process: Released is closed and stays closed.
type Process struct {
	exitWhenIdle bool

	once     sync.Once
	released chan struct{}

	mu   sync.Mutex
	runs int
}

// NewProcess creates a host lifecycle.
func NewProcess(exitWhenIdle bool) *Process {
	return &Process{
		exitWhenIdle: exitWhenIdle,
		released:     make(chan struct{}),
	}
}

// SyncFinished counts the run and releases the process if configured to.
func (p *Process) SyncFinished(run domain.SyncRun) {
	p.mu.Lock()
	p.runs++
	p.mu.Unlock()

	if !p.exitWhenIdle {
		return
	}
	p.once.Do(func() {
		logger.With("run", run.ID).Info("sync idle, releasing process")
		close(p.released)
	})
}

// Released is closed once the process no longer needs to stay alive.
func (p *Process) Released() <-chan struct{} {
	return p.released
}

// Runs returns how many runs finished.
func (p *Process) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}
