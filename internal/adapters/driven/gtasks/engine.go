package gtasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/tasks/v1"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/logger"
)

// Ensure Engine implements the interface.
var _ driven.SyncEngine = (*Engine)(nil)

// Engine syncs local notes with a Google Tasks list.
type Engine struct {
	clients  ClientFactory
	notes    driven.NoteStore
	states   driven.SyncStateStore
	listName string
	limiter  *RateLimiter
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTaskListName sets the remote list that holds notes.
func WithTaskListName(name string) EngineOption {
	return func(e *Engine) {
		if name != "" {
			e.listName = name
		}
	}
}

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(limiter *RateLimiter) EngineOption {
	return func(e *Engine) {
		e.limiter = limiter
	}
}

// NewEngine creates a Google Tasks sync engine.
func NewEngine(
	clients ClientFactory,
	notes driven.NoteStore,
	states driven.SyncStateStore,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		clients:  clients,
		notes:    notes,
		states:   states,
		listName: domain.DefaultTaskListName,
		limiter:  NewRateLimiter(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one pull-then-push sync for account.
func (e *Engine) Run(
	ctx context.Context,
	account *domain.Account,
	token driven.CancellationToken,
	onProgress driven.ProgressFunc,
) error {
	if account == nil {
		return domain.ErrAuthRequired
	}
	if onProgress == nil {
		onProgress = func(string) {}
	}

	client, err := e.clients(ctx, account)
	if err != nil {
		return fmt.Errorf("create tasks client: %w", err)
	}

	s := &session{
		engine:     e,
		ctx:        ctx,
		client:     client,
		token:      token,
		onProgress: onProgress,
	}
	return s.run(account)
}

// session holds the state of one Run.
type session struct {
	engine     *Engine
	ctx        context.Context
	client     TasksClient
	token      driven.CancellationToken
	onProgress driven.ProgressFunc

	pulled int
	pushed int
}

func (s *session) run(account *domain.Account) error {
	startedAt := s.engine.now()

	state, err := s.engine.states.Get(s.ctx, account.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		state = &domain.SyncState{AccountID: account.ID}
	case err != nil:
		return fmt.Errorf("load sync state: %w", err)
	}

	logger.Section("Pull")
	s.onProgress("Connecting to Google Tasks")
	listID, err := s.ensureList(state)
	if err != nil {
		return err
	}
	if listID != state.TaskListID {
		// New list: nothing in it is known locally yet.
		state.TaskListID = listID
		state.LastSync = time.Time{}
	}

	if err := s.pull(listID, state.LastSync); err != nil {
		return err
	}

	logger.Section("Push")
	if err := s.push(listID); err != nil {
		return err
	}

	state.LastSync = startedAt
	if err := s.engine.states.Save(s.ctx, *state); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}

	s.onProgress(fmt.Sprintf("Synced %d remote and %d local changes", s.pulled, s.pushed))
	return nil
}

// call runs one API request after the cancellation check and rate limiter.
func (s *session) call(fn func() error) error {
	if s.token.IsCancelled() {
		return domain.ErrSyncCancelled
	}
	if err := s.engine.limiter.Wait(s.ctx, s.token.IsCancelled); err != nil {
		return err
	}
	err := fn()
	if IsRateLimited(err) {
		s.engine.limiter.RecordRateLimitError(retryAfter(err))
	}
	return WrapError(err)
}

// ensureList returns the ID of the notes list, creating it when missing.
func (s *session) ensureList(state *domain.SyncState) (string, error) {
	var lists []*tasks.TaskList
	err := s.call(func() error {
		var err error
		lists, err = s.client.ListTaskLists(s.ctx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("list task lists: %w", err)
	}

	for _, l := range lists {
		if state.TaskListID != "" && l.Id == state.TaskListID {
			return l.Id, nil
		}
	}
	for _, l := range lists {
		if l.Title == s.engine.listName {
			return l.Id, nil
		}
	}

	var created *tasks.TaskList
	err = s.call(func() error {
		var err error
		created, err = s.client.InsertTaskList(s.ctx, s.engine.listName)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create task list %q: %w", s.engine.listName, err)
	}
	logger.Info("created task list %q", s.engine.listName)
	return created.Id, nil
}

// pull applies remote changes to notes without a pending local change.
func (s *session) pull(listID string, since time.Time) error {
	pageToken := ""
	for page := 1; ; page++ {
		s.onProgress(fmt.Sprintf("Pulling remote changes (page %d)", page))

		var resp *tasks.Tasks
		err := s.call(func() error {
			var err error
			resp, err = s.client.ListTasks(s.ctx, listID, since, pageToken)
			return err
		})
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}

		for _, item := range resp.Items {
			if err := s.applyRemote(item); err != nil {
				return err
			}
		}

		if resp.NextPageToken == "" {
			return nil
		}
		pageToken = resp.NextPageToken
	}
}

func (s *session) applyRemote(item *tasks.Task) error {
	ctx := s.ctx
	notes := s.engine.notes

	local, err := notes.GetByRemoteID(ctx, item.Id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("find note for task %s: %w", item.Id, err)
	}

	if local != nil && local.Dirty {
		logger.Debug("task %s: local change pending, keeping local", item.Id)
		return nil
	}

	if item.Deleted {
		if local == nil {
			return nil
		}
		if err := notes.Delete(ctx, local.ID); err != nil {
			return fmt.Errorf("delete note %s: %w", local.ID, err)
		}
		s.pulled++
		return nil
	}

	now := s.engine.now()
	updated := parseUpdated(item.Updated, now)
	if local == nil {
		local = &domain.Note{
			ID:        uuid.NewString(),
			RemoteID:  item.Id,
			CreatedAt: updated,
		}
	} else if local.Title == item.Title && local.Content == item.Notes {
		return nil
	}

	local.Title = item.Title
	local.Content = item.Notes
	local.UpdatedAt = updated
	local.SyncedAt = now
	local.Dirty = false
	if err := notes.Save(ctx, *local); err != nil {
		return fmt.Errorf("save note %s: %w", local.ID, err)
	}
	s.pulled++
	return nil
}

// push uploads pending local changes.
func (s *session) push(listID string) error {
	dirty, err := s.engine.notes.ListDirty(s.ctx)
	if err != nil {
		return fmt.Errorf("list pending notes: %w", err)
	}

	for i := range dirty {
		s.onProgress(fmt.Sprintf("Pushing local changes (%d/%d)", i+1, len(dirty)))
		if err := s.pushNote(listID, dirty[i]); err != nil {
			return err
		}
		s.pushed++
	}
	return nil
}

func (s *session) pushNote(listID string, note domain.Note) error {
	ctx := s.ctx
	notes := s.engine.notes

	if note.Deleted {
		if !note.IsNew() {
			err := s.call(func() error {
				return s.client.DeleteTask(ctx, listID, note.RemoteID)
			})
			if err != nil && !IsNotFound(err) {
				return fmt.Errorf("delete task %s: %w", note.RemoteID, err)
			}
		}
		if err := notes.Delete(ctx, note.ID); err != nil {
			return fmt.Errorf("delete note %s: %w", note.ID, err)
		}
		return nil
	}

	remoteID, err := s.upload(listID, note)
	if err != nil {
		return err
	}

	// The notes app may have edited the note while it was uploading.
	current, err := notes.Get(ctx, note.ID)
	if err != nil {
		return fmt.Errorf("reload note %s: %w", note.ID, err)
	}
	current.RemoteID = remoteID
	current.SyncedAt = s.engine.now()
	current.Dirty = !current.UpdatedAt.Equal(note.UpdatedAt)
	if err := notes.Save(ctx, *current); err != nil {
		return fmt.Errorf("save note %s: %w", note.ID, err)
	}
	return nil
}

// upload inserts or patches the task for note and returns its remote ID.
func (s *session) upload(listID string, note domain.Note) (string, error) {
	task := &tasks.Task{
		Id:              note.RemoteID,
		Title:           note.Title,
		Notes:           note.Content,
		ForceSendFields: []string{"Title", "Notes"},
	}

	if !note.IsNew() {
		var patched *tasks.Task
		err := s.call(func() error {
			var err error
			patched, err = s.client.PatchTask(s.ctx, listID, task)
			return err
		})
		if err == nil {
			return patched.Id, nil
		}
		if !IsNotFound(err) {
			return "", fmt.Errorf("update task %s: %w", note.RemoteID, err)
		}
		logger.Debug("task %s gone remotely, re-creating", note.RemoteID)
		task.Id = ""
	}

	var inserted *tasks.Task
	err := s.call(func() error {
		var err error
		inserted, err = s.client.InsertTask(s.ctx, listID, task)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create task for note %s: %w", note.ID, err)
	}
	return inserted.Id, nil
}

func parseUpdated(value string, fallback time.Time) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback
	}
	return t
}
