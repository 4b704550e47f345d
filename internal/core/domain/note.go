package domain

import "time"

// Note is a local note as seen by the sync engine.
// Creating and editing notes belongs to the notes application;
// the engine only reads pending changes and applies remote ones.
type Note struct {
	// ID is the local identifier (UUID).
	ID string

	// RemoteID is the identifier of the matching remote item.
	// Empty until the note has been uploaded once.
	RemoteID string

	// Title is the first line shown in the notes list.
	Title string

	// Content is the note body.
	Content string

	// CreatedAt is when the note was created locally.
	CreatedAt time.Time

	// UpdatedAt is when the note last changed, locally or from remote.
	UpdatedAt time.Time

	// SyncedAt is when the note was last reconciled with remote.
	SyncedAt time.Time

	// Dirty marks a local change that has not been uploaded yet.
	Dirty bool

	// Deleted marks a local deletion waiting to be pushed.
	Deleted bool
}

// IsNew reports whether the note has never been uploaded.
func (n *Note) IsNew() bool {
	return n.RemoteID == ""
}
