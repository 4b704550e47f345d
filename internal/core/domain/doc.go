// Package domain defines the core business entities for notesync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Note: A local note as seen by the sync engine
//   - ProgressState: The last published sync status
//   - SyncRun: The structured outcome of one finished sync
//   - SyncState: Per-account engine cursor for incremental sync
//   - Account: The remote account a sync runs against
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
