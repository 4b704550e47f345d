package driven

import (
	"context"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// NoteStore is the local note persistence shared with the notes application.
type NoteStore interface {
	// Save stores or updates a note, keeping its Dirty and Deleted flags as given.
	Save(ctx context.Context, note domain.Note) error

	// Get retrieves a note by local ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Note, error)

	// GetByRemoteID retrieves the note linked to a remote item.
	// Returns domain.ErrNotFound if none is linked.
	GetByRemoteID(ctx context.Context, remoteID string) (*domain.Note, error)

	// List returns all notes that are not tombstoned.
	List(ctx context.Context) ([]domain.Note, error)

	// ListDirty returns notes with pending local changes, tombstones included.
	ListDirty(ctx context.Context) ([]domain.Note, error)

	// CountDirty returns the number of notes with pending local changes.
	CountDirty(ctx context.Context) (int, error)

	// Delete removes a note permanently.
	Delete(ctx context.Context, id string) error
}
