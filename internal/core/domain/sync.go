package domain

import (
	"errors"
	"time"
)

// SyncOutcome is the terminal result of a sync run.
type SyncOutcome string

// Sync outcomes.
const (
	// OutcomeSucceeded means the engine finished without error.
	OutcomeSucceeded SyncOutcome = "succeeded"

	// OutcomeFailed means the engine (or account resolution) returned an error.
	OutcomeFailed SyncOutcome = "failed"

	// OutcomeCancelled means the engine honoured a cancellation request.
	OutcomeCancelled SyncOutcome = "cancelled"
)

// String returns the string representation.
func (o SyncOutcome) String() string {
	return string(o)
}

// OutcomeFor classifies the error returned by a sync engine.
func OutcomeFor(err error) SyncOutcome {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, ErrSyncCancelled):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// SyncRun records one finished sync run.
type SyncRun struct {
	// ID identifies the run (UUID).
	ID string `json:"id"`

	// AccountID is the account the run synced, empty if resolution failed.
	AccountID string `json:"account_id,omitempty"`

	// StartedAt is when Start created the run.
	StartedAt time.Time `json:"started_at"`

	// EndedAt is when the completion hook fired.
	EndedAt time.Time `json:"ended_at"`

	// Outcome is the terminal result.
	Outcome SyncOutcome `json:"outcome"`

	// Message is the human-readable terminal message.
	Message string `json:"message,omitempty"`
}

// Duration returns how long the run took.
func (r SyncRun) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run finished without error.
func (r SyncRun) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// SyncState holds the engine cursor for one account.
type SyncState struct {
	// AccountID identifies the account.
	AccountID string

	// TaskListID is the remote list that holds the account's notes.
	TaskListID string

	// LastSync is the start time of the last successful sync.
	// Zero means the next sync pulls everything.
	LastSync time.Time
}
