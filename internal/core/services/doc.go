// Package services implements the driving port interfaces.
// Services contain the core sync logic and orchestrate
// calls to driven ports (adapters).
//
// SyncCoordinator is the heart of the package: it guarantees at most one
// sync run in flight, relays engine progress through a ProgressChannel and
// runs one completion hook per run, whatever the outcome.
package services
