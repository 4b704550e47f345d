// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SyncEngine: Performs one sync run against the remote task store
//   - AccountResolver: Resolves the account a run syncs, once per run
//   - NoteStore: Local note persistence shared with the notes application
//   - SyncStateStore: Engine cursor and run history persistence
//   - AccountStore: Signed-in account persistence
//   - SchedulerStore: Scheduler task state and history
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the coordinator degrades gracefully:
//
//   - HostLifecycle: Told when a run finishes so the host may stop
//   - RunRecorder: Stores finished runs for history
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
