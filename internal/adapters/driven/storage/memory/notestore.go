package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
)

// Ensure NoteStore implements the interface.
var _ driven.NoteStore = (*NoteStore)(nil)

// NoteStore is an in-memory implementation of driven.NoteStore.
type NoteStore struct {
	mu    sync.RWMutex
	notes map[string]domain.Note
}

// NewNoteStore creates a new in-memory note store.
func NewNoteStore() *NoteStore {
	return &NoteStore{
		notes: make(map[string]domain.Note),
	}
}

// Save stores or updates a note.
func (s *NoteStore) Save(_ context.Context, note domain.Note) error {
	if note.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.ID] = note
	return nil
}

// Get retrieves a note by local ID.
func (s *NoteStore) Get(_ context.Context, id string) (*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &note, nil
}

// GetByRemoteID retrieves the note linked to a remote item.
func (s *NoteStore) GetByRemoteID(_ context.Context, remoteID string) (*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if remoteID == "" {
		return nil, domain.ErrNotFound
	}
	for _, note := range s.notes {
		if note.RemoteID == remoteID {
			return &note, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all notes that are not tombstoned, most recently updated first.
func (s *NoteStore) List(_ context.Context) ([]domain.Note, error) {
	notes := s.filter(func(n domain.Note) bool { return !n.Deleted })
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

// ListDirty returns notes with pending local changes.
func (s *NoteStore) ListDirty(_ context.Context) ([]domain.Note, error) {
	notes := s.filter(func(n domain.Note) bool { return n.Dirty })
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.Before(notes[j].UpdatedAt)
	})
	return notes, nil
}

// CountDirty returns the number of notes with pending local changes.
func (s *NoteStore) CountDirty(ctx context.Context) (int, error) {
	dirty, err := s.ListDirty(ctx)
	return len(dirty), err
}

// Delete removes a note permanently.
func (s *NoteStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, id)
	return nil
}

func (s *NoteStore) filter(keep func(domain.Note) bool) []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Note
	for _, n := range s.notes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
