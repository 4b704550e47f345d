package services

import (
	"context"
	"runtime"
	"time"

	"github.com/custodia-labs/notesync/internal/logger"
)

// canceller is the part of the coordinator the pressure monitor drives.
type canceller interface {
	IsSyncing() bool
	Cancel() bool
}

// PressureMonitor cancels the running sync when heap usage exceeds a limit.
// It is one more external caller of Cancel and gives no timing guarantee.
type PressureMonitor struct {
	target   canceller
	limit    uint64
	interval time.Duration
	heap     func() uint64
}

// NewPressureMonitor creates a monitor for target. A zero limit disables it.
func NewPressureMonitor(target canceller, limit uint64, interval time.Duration) *PressureMonitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &PressureMonitor{
		target:   target,
		limit:    limit,
		interval: interval,
		heap:     heapInUse,
	}
}

// Enabled reports whether a limit is configured.
func (m *PressureMonitor) Enabled() bool {
	return m.limit > 0
}

// Run samples heap usage until ctx is cancelled.
func (m *PressureMonitor) Run(ctx context.Context) error {
	if !m.Enabled() {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.check()
		}
	}
}

// check cancels the sync if usage is over the limit. Reports whether it did.
func (m *PressureMonitor) check() bool {
	if !m.Enabled() || !m.target.IsSyncing() {
		return false
	}
	used := m.heap()
	if used <= m.limit {
		return false
	}
	logger.Warn("memory pressure: heap %d MiB over limit %d MiB, cancelling sync", used>>20, m.limit>>20)
	return m.target.Cancel()
}

func heapInUse() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapInuse
}
