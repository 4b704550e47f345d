package driving

import "github.com/custodia-labs/notesync/internal/core/domain"

// ProgressObserver receives every published progress state.
// Implementations must return quickly and must not call back into
// the coordinator's Start or Cancel from inside OnProgress.
type ProgressObserver interface {
	OnProgress(state domain.ProgressState)
}

// ObserverFunc adapts a function to ProgressObserver.
type ObserverFunc func(state domain.ProgressState)

// OnProgress calls f(state).
func (f ObserverFunc) OnProgress(state domain.ProgressState) {
	f(state)
}

// ProgressChannel is a last-value notification channel for sync status.
type ProgressChannel interface {
	// Publish overwrites the current state and notifies all observers.
	Publish(syncing bool, message string)

	// Current returns the last published state without blocking.
	Current() domain.ProgressState

	// Subscribe registers an observer and returns a function that removes it.
	Subscribe(observer ProgressObserver) (unsubscribe func())
}
