package domain

// ProgressState is the last published sync status.
// There is exactly one current value; publishing overwrites it.
type ProgressState struct {
	// Syncing reports whether a sync run is in flight.
	Syncing bool `json:"is_syncing"`

	// Message is human-readable progress text. Empty when idle.
	Message string `json:"message"`
}

// IdleProgress is the state published at process start and after every run.
var IdleProgress = ProgressState{}

// IsIdle reports whether the state equals the idle value.
func (p ProgressState) IsIdle() bool {
	return p == IdleProgress
}
