// Package gtasks implements driven.SyncEngine against Google Tasks.
//
// Each local note maps to one task in a dedicated task list (default "Notes"):
// the note title is the task title and the note body is the task notes field.
// A run pulls remote changes since the last successful sync, then pushes
// pending local changes. A note with a pending local change is never
// overwritten by the pull.
//
// All API calls go through a rate limiter and check the cancellation token
// first, so a cancelled run stops before its next request.
package gtasks
