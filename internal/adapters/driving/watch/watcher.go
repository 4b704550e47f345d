// Package watch starts a sync when the local notes database changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/logger"
)

// DefaultDebounce is how long the directory must stay quiet before a check.
const DefaultDebounce = 2 * time.Second

type dirtyLister interface {
	CountDirty(ctx context.Context) (int, error)
	ListDirty(ctx context.Context) ([]domain.Note, error)
}

type starter interface {
	Start() bool
}

// pending identifies a set of local changes waiting for upload.
type pending struct {
	count  int
	latest time.Time
}

func pendingOf(notes []domain.Note) pending {
	p := pending{count: len(notes)}
	for _, n := range notes {
		if n.UpdatedAt.After(p.latest) {
			p.latest = n.UpdatedAt
		}
	}
	return p
}

func (p pending) same(o pending) bool {
	return p.count == o.count && p.latest.Equal(o.latest)
}

// Watcher triggers a sync after local writes leave notes waiting for upload.
// A set of pending changes is handed to a run once. Writes made by that run
// (cleared dirty flags, recorded history) do not start another one, even when
// it fails; retrying failures is the scheduler's job.
type Watcher struct {
	dir         string
	prefix      string
	debounce    time.Duration
	notes       dirtyLister
	coordinator starter

	handed pending
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher watches files in dir whose names start with prefix, so the
// database and its WAL and journal files all count.
func NewWatcher(dir, prefix string, notes dirtyLister, coordinator starter, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         dir,
		prefix:      prefix,
		debounce:    DefaultDebounce,
		notes:       notes,
		coordinator: coordinator,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Debug("watching %s for local changes", w.dir)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher: %v", err)
		case <-timer.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return strings.HasPrefix(filepath.Base(event.Name), w.prefix)
}

// check starts a sync when notes are waiting for upload and have changed
// since the last run was started for them.
func (w *Watcher) check(ctx context.Context) {
	n, err := w.notes.CountDirty(ctx)
	if err != nil {
		logger.Warn("count pending notes: %v", err)
		return
	}
	if n == 0 {
		w.handed = pending{}
		return
	}
	dirty, err := w.notes.ListDirty(ctx)
	if err != nil {
		logger.Warn("list pending notes: %v", err)
		return
	}
	p := pendingOf(dirty)
	if p.same(w.handed) {
		logger.Debug("%d pending change(s) already handed to a sync", p.count)
		return
	}
	if w.coordinator.Start() {
		w.handed = p
		logger.Info("%d local change(s) pending, sync started", p.count)
	}
}
