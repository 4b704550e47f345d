package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

func TestLoadSettings_NilStore(t *testing.T) {
	assert.Equal(t, domain.DefaultSettings(), LoadSettings(nil))
}

func TestLoadSettings_EmptyFileUsesDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	settings := LoadSettings(store)

	assert.Equal(t, domain.DefaultTaskListName, settings.TaskList)
	assert.Equal(t, domain.DefaultListenAddress, settings.Daemon.Listen)
	assert.True(t, settings.Scheduler.Enabled)
	assert.Equal(t, 30*time.Minute, settings.Scheduler.GetTaskConfig(domain.TaskIDNoteSync).Interval)
	assert.False(t, settings.Google.IsConfigured())
}

func TestLoadSettings_FromTOML(t *testing.T) {
	dir := t.TempDir()
	content := `
[sync]
tasklist = "Work notes"
interval = "1h"
retry_initial = 15
retry_max = "5m"

[scheduler]
enabled = false

[google]
client_id = "id.apps.googleusercontent.com"
client_secret = "shh"

[account]
default = "alice@example.com"

[daemon]
listen = "127.0.0.1:9000"
watch = true
memory_limit_mb = 256

[log]
verbose = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	settings := LoadSettings(store)

	task := settings.Scheduler.GetTaskConfig(domain.TaskIDNoteSync)
	assert.Equal(t, "Work notes", settings.TaskList)
	assert.Equal(t, time.Hour, task.Interval)
	assert.Equal(t, 15*time.Second, task.RetryInitial)
	assert.Equal(t, 5*time.Minute, task.RetryMax)
	assert.False(t, settings.Scheduler.Enabled)
	assert.True(t, settings.Google.IsConfigured())
	assert.Equal(t, "shh", settings.Google.ClientSecret)
	assert.Equal(t, "alice@example.com", settings.DefaultAccount)
	assert.Equal(t, "127.0.0.1:9000", settings.Daemon.Listen)
	assert.True(t, settings.Daemon.Watch)
	assert.Equal(t, uint64(256<<20), settings.Daemon.MemoryLimit)
	assert.True(t, settings.Verbose)
}

func TestLoadSettings_InvalidDurationsFallBack(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(KeySyncInterval, "soon"))
	require.NoError(t, store.Set(KeySyncRetryInitial, "-5s"))

	settings := LoadSettings(store)
	task := settings.Scheduler.GetTaskConfig(domain.TaskIDNoteSync)

	assert.Equal(t, 30*time.Minute, task.Interval)
	assert.Equal(t, 30*time.Second, task.RetryInitial)
}

func TestLoadSettings_IntervalHasFloor(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(KeySyncInterval, "5s"))

	settings := LoadSettings(store)
	task := settings.Scheduler.GetTaskConfig(domain.TaskIDNoteSync)

	assert.Equal(t, time.Minute, task.Interval)
}
