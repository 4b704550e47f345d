package services

import (
	"sync"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
	"github.com/custodia-labs/notesync/internal/logger"
)

// Ensure ProgressBroadcaster implements the interface.
var _ driving.ProgressChannel = (*ProgressBroadcaster)(nil)

// ProgressBroadcaster is a last-value progress channel.
// Publishes are serialized so every observer sees states in the order
// Current reports them. Observers run on the publisher's goroutine.
type ProgressBroadcaster struct {
	publishMu sync.Mutex

	mu        sync.RWMutex
	current   domain.ProgressState
	observers map[uint64]driving.ProgressObserver
	nextID    uint64
}

// NewProgressBroadcaster creates a broadcaster in the idle state.
func NewProgressBroadcaster() *ProgressBroadcaster {
	return &ProgressBroadcaster{
		current:   domain.IdleProgress,
		observers: make(map[uint64]driving.ProgressObserver),
	}
}

// Publish overwrites the current state and notifies every observer.
func (b *ProgressBroadcaster) Publish(syncing bool, message string) {
	state := domain.ProgressState{Syncing: syncing, Message: message}

	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.mu.Lock()
	b.current = state
	observers := make([]driving.ProgressObserver, 0, len(b.observers))
	for _, o := range b.observers {
		observers = append(observers, o)
	}
	b.mu.Unlock()

	for _, o := range observers {
		notify(o, state)
	}
}

// Current returns the last published state.
func (b *ProgressBroadcaster) Current() domain.ProgressState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Subscribe registers observer. The returned function removes it and is
// safe to call more than once.
func (b *ProgressBroadcaster) Subscribe(observer driving.ProgressObserver) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.observers[id] = observer
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

// notify shields the publisher from a panicking observer.
func notify(o driving.ProgressObserver, state domain.ProgressState) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("progress observer panicked: %v", r)
		}
	}()
	o.OnProgress(state)
}

// ChannelObserver forwards progress states to a buffered channel.
// It never blocks: when the buffer is full the oldest pending state is
// dropped so the newest one is always delivered.
type ChannelObserver struct {
	mu sync.Mutex
	ch chan domain.ProgressState
}

// NewChannelObserver creates an observer with a buffer of size states.
func NewChannelObserver(size int) *ChannelObserver {
	if size < 1 {
		size = 1
	}
	return &ChannelObserver{ch: make(chan domain.ProgressState, size)}
}

// C returns the channel states are delivered on.
func (o *ChannelObserver) C() <-chan domain.ProgressState {
	return o.ch
}

// OnProgress sends state to the channel without blocking.
func (o *ChannelObserver) OnProgress(state domain.ProgressState) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for {
		select {
		case o.ch <- state:
			return
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}
