package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/notesync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
)

// DatabaseFile is the file name of the database inside the data directory.
const DatabaseFile = "notes.db"

// runRetention is how many sync runs are kept in the history.
const runRetention = 100

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.notesync/data/notes.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".notesync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// NoteStore returns a NoteStore interface backed by this store.
func (s *Store) NoteStore() driven.NoteStore {
	return &noteStore{store: s}
}

// SyncStateStore returns a SyncStateStore interface backed by this store.
func (s *Store) SyncStateStore() driven.SyncStateStore {
	return &syncStateStore{store: s}
}

// AccountStore returns an AccountStore interface backed by this store.
func (s *Store) AccountStore() driven.AccountStore {
	return &accountStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Note Store ====================

// noteStore implements driven.NoteStore.
type noteStore struct {
	store *Store
}

var _ driven.NoteStore = (*noteStore)(nil)

const noteColumns = `id, remote_id, title, content, created_at, updated_at, synced_at, dirty, deleted`

// Save stores or updates a note.
func (s *noteStore) Save(ctx context.Context, note domain.Note) error {
	if note.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			remote_id = excluded.remote_id,
			title = excluded.title,
			content = excluded.content,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at,
			dirty = excluded.dirty,
			deleted = excluded.deleted
	`, note.ID, nullString(note.RemoteID), note.Title, note.Content,
		formatTime(note.CreatedAt), formatTime(note.UpdatedAt), formatNullableTime(note.SyncedAt),
		boolToInt(note.Dirty), boolToInt(note.Deleted))

	if err != nil {
		return fmt.Errorf("saving note: %w", err)
	}
	return nil
}

// Get retrieves a note by local ID.
func (s *noteStore) Get(ctx context.Context, id string) (*domain.Note, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	return scanNote(row)
}

// GetByRemoteID retrieves the note linked to a remote item.
func (s *noteStore) GetByRemoteID(ctx context.Context, remoteID string) (*domain.Note, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE remote_id = ?`, remoteID)
	return scanNote(row)
}

// List returns all notes that are not tombstoned, most recently updated first.
func (s *noteStore) List(ctx context.Context) ([]domain.Note, error) {
	return s.query(ctx, `SELECT `+noteColumns+` FROM notes WHERE deleted = 0 ORDER BY updated_at DESC`)
}

// ListDirty returns notes with pending local changes.
func (s *noteStore) ListDirty(ctx context.Context) ([]domain.Note, error) {
	return s.query(ctx, `SELECT `+noteColumns+` FROM notes WHERE dirty = 1 ORDER BY updated_at`)
}

// CountDirty returns the number of notes with pending local changes.
func (s *noteStore) CountDirty(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes WHERE dirty = 1").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting dirty notes: %w", err)
	}
	return n, nil
}

// Delete removes a note permanently.
func (s *noteStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}

func (s *noteStore) query(ctx context.Context, query string, args ...any) ([]domain.Note, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note //nolint:prealloc // size unknown from query
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

// ==================== Sync State Store ====================

// syncStateStore implements driven.SyncStateStore.
type syncStateStore struct {
	store *Store
}

var _ driven.SyncStateStore = (*syncStateStore)(nil)

// Save stores or updates sync state.
func (s *syncStateStore) Save(ctx context.Context, state domain.SyncState) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_states (account_id, task_list_id, last_sync)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			task_list_id = excluded.task_list_id,
			last_sync = excluded.last_sync
	`, state.AccountID, state.TaskListID, formatNullableTime(state.LastSync))

	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

// Get retrieves sync state for an account.
func (s *syncStateStore) Get(ctx context.Context, accountID string) (*domain.SyncState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT account_id, task_list_id, last_sync
		FROM sync_states WHERE account_id = ?
	`, accountID)

	var state domain.SyncState
	var lastSync sql.NullString
	if err := row.Scan(&state.AccountID, &state.TaskListID, &lastSync); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sync state: %w", err)
	}
	state.LastSync = parseNullableTime(lastSync)

	return &state, nil
}

// Delete removes sync state for an account.
func (s *syncStateStore) Delete(ctx context.Context, accountID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM sync_states WHERE account_id = ?", accountID)
	if err != nil {
		return fmt.Errorf("deleting sync state: %w", err)
	}
	return nil
}

// RecordRun appends a finished run and trims the history.
func (s *syncStateStore) RecordRun(ctx context.Context, run domain.SyncRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_runs (id, account_id, started_at, ended_at, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, nullString(run.AccountID), formatTime(run.StartedAt), formatTime(run.EndedAt),
		run.Outcome.String(), nullString(run.Message))
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		DELETE FROM sync_runs
		WHERE id NOT IN (
			SELECT id FROM sync_runs ORDER BY started_at DESC LIMIT ?
		)
	`, runRetention)
	if err != nil {
		return fmt.Errorf("pruning sync runs: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *syncStateStore) ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, account_id, started_at, ended_at, outcome, message
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.SyncRun
		var accountID, message sql.NullString
		var startedAt, endedAt, outcome string
		if err := rows.Scan(&run.ID, &accountID, &startedAt, &endedAt, &outcome, &message); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		run.AccountID = accountID.String
		run.StartedAt = parseTime(startedAt)
		run.EndedAt = parseTime(endedAt)
		run.Outcome = domain.SyncOutcome(outcome)
		run.Message = message.String
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync runs: %w", err)
	}
	return runs, nil
}

// ==================== Account Store ====================

// accountStore implements driven.AccountStore.
type accountStore struct {
	store *Store
}

var _ driven.AccountStore = (*accountStore)(nil)

// Save stores or updates an account.
func (s *accountStore) Save(ctx context.Context, account domain.Account) error {
	if account.ID == "" {
		return domain.ErrInvalidInput
	}

	tokenJSON, err := json.Marshal(account.Token)
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO accounts (id, token, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at
	`, account.ID, string(tokenJSON), formatTime(account.CreatedAt), formatTime(account.UpdatedAt))

	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// Get retrieves an account by ID.
func (s *accountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, token, created_at, updated_at FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

// List returns all accounts ordered by creation time.
func (s *accountStore) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, token, created_at, updated_at FROM accounts ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account //nolint:prealloc // size unknown from query
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

// Delete removes an account.
func (s *accountStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*domain.Note, error) {
	var note domain.Note
	var remoteID, syncedAt sql.NullString
	var createdAt, updatedAt string
	var dirty, deleted int

	if err := row.Scan(&note.ID, &remoteID, &note.Title, &note.Content,
		&createdAt, &updatedAt, &syncedAt, &dirty, &deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning note: %w", err)
	}

	note.RemoteID = remoteID.String
	note.CreatedAt = parseTime(createdAt)
	note.UpdatedAt = parseTime(updatedAt)
	note.SyncedAt = parseNullableTime(syncedAt)
	note.Dirty = dirty == 1
	note.Deleted = deleted == 1

	return &note, nil
}

func scanAccount(row scanner) (*domain.Account, error) {
	var account domain.Account
	var tokenJSON, createdAt, updatedAt string

	if err := row.Scan(&account.ID, &tokenJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	if err := json.Unmarshal([]byte(tokenJSON), &account.Token); err != nil {
		return nil, fmt.Errorf("unmarshalling token: %w", err)
	}
	account.CreatedAt = parseTime(createdAt)
	account.UpdatedAt = parseTime(updatedAt)

	return &account, nil
}
