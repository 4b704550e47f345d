package file

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "notesync")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".notesync", "config.toml"), store.Path())
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[daemon\nlisten ="), 0o600))

	_, err := NewConfigStore(dir)

	assert.Error(t, err)
}

func TestConfigStore_LoadsNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := `[sync]
tasklist = "Inbox"
interval = "45m"

[daemon]
listen = "127.0.0.1:9000"
watch = true
memory_limit_mb = 512
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "Inbox", store.GetString(KeySyncTaskList))
	assert.Equal(t, "45m", store.GetString(KeySyncInterval))
	assert.Equal(t, "127.0.0.1:9000", store.GetString(KeyDaemonListen))
	assert.True(t, store.GetBool(KeyDaemonWatch))
	assert.Equal(t, 512, store.GetInt(KeyDaemonMemoryLimit))
}

func TestConfigStore_SetWritesTables(t *testing.T) {
	store, dir := newStore(t)

	require.NoError(t, store.Set(KeyDaemonListen, "127.0.0.1:9000"))
	require.NoError(t, store.Set(KeyDaemonWatch, true))
	require.NoError(t, store.Set(KeyAccountDefault, "me@example.com"))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[daemon]")
	assert.Contains(t, content, "[account]")
	assert.NotContains(t, content, "'daemon.listen'")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, store.Keys(), reloaded.Keys())
	assert.Equal(t, "127.0.0.1:9000", reloaded.GetString(KeyDaemonListen))
	assert.True(t, reloaded.GetBool(KeyDaemonWatch))
}

func TestConfigStore_SetConflictingKey(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set(KeyDaemonListen, "127.0.0.1:9000"))

	err := store.Set("daemon", "oops")

	assert.ErrorContains(t, err, "conflicts")
	_, ok := store.Get("daemon")
	assert.False(t, ok)
}

func TestConfigStore_Delete(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, store.Set(KeyGoogleClientID, "id"))
	require.NoError(t, store.Set(KeyGoogleSecret, "secret"))

	require.NoError(t, store.Delete(KeyGoogleSecret))
	require.NoError(t, store.Delete("not.there"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyGoogleClientID}, reloaded.Keys())
}

func TestConfigStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	store, dir := newStore(t)
	require.NoError(t, store.Set(KeyGoogleSecret, "secret"))

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.NoFileExists(t, filepath.Join(dir, "config.toml.tmp"))
}

func TestConfigStore_SaveError(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("needs a non-root unix user")
	}
	store, dir := newStore(t)
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	assert.Error(t, store.Set(KeyLogVerbose, true))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, _ := newStore(t)
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(KeySyncTaskList, "list")
			_ = store.GetString(KeySyncTaskList)
			_ = store.Keys()
		}()
	}
	wg.Wait()

	assert.Equal(t, "list", store.GetString(KeySyncTaskList))
}
