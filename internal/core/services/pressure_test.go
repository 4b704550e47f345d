package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockCanceller struct {
	syncing   atomic.Bool
	cancelled atomic.Int32
}

func (m *mockCanceller) IsSyncing() bool { return m.syncing.Load() }

func (m *mockCanceller) Cancel() bool {
	m.cancelled.Add(1)
	return m.syncing.Load()
}

func TestPressureMonitor_DisabledWithZeroLimit(t *testing.T) {
	target := &mockCanceller{}
	target.syncing.Store(true)
	m := NewPressureMonitor(target, 0, time.Millisecond)
	m.heap = func() uint64 { return 1 << 40 }

	assert.False(t, m.Enabled())
	assert.False(t, m.check())
	assert.Zero(t, target.cancelled.Load())
}

func TestPressureMonitor_CancelsOverLimit(t *testing.T) {
	target := &mockCanceller{}
	target.syncing.Store(true)
	m := NewPressureMonitor(target, 100<<20, time.Millisecond)
	m.heap = func() uint64 { return 200 << 20 }

	assert.True(t, m.check())
	assert.Equal(t, int32(1), target.cancelled.Load())
}

func TestPressureMonitor_IgnoresWhenUnderLimitOrIdle(t *testing.T) {
	target := &mockCanceller{}
	m := NewPressureMonitor(target, 100<<20, time.Millisecond)
	m.heap = func() uint64 { return 200 << 20 }

	assert.False(t, m.check(), "idle coordinator is left alone")

	target.syncing.Store(true)
	m.heap = func() uint64 { return 50 << 20 }
	assert.False(t, m.check())
	assert.Zero(t, target.cancelled.Load())
}

func TestPressureMonitor_RunStopsWithContext(t *testing.T) {
	target := &mockCanceller{}
	target.syncing.Store(true)
	m := NewPressureMonitor(target, 1, time.Millisecond)
	m.heap = func() uint64 { return 2 }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()

	assert.Eventually(t, func() bool { return target.cancelled.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-errCh)
}

func TestPressureMonitor_DefaultInterval(t *testing.T) {
	m := NewPressureMonitor(&mockCanceller{}, 1, 0)

	assert.Equal(t, 10*time.Second, m.interval)
	assert.Positive(t, heapInUse())
}
