package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesync/internal/adapters/driving/cli"
	"github.com/custodia-labs/notesync/internal/core/domain"
)

func TestBuild_Defaults(t *testing.T) {
	dir := t.TempDir()

	rt, err := build(cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Equal(t, domain.DefaultTaskListName, rt.Settings.TaskList)
	assert.Equal(t, filepath.Join(dir, "config.toml"), rt.Config.Path())
	assert.FileExists(t, filepath.Join(dir, "data", "notes.db"))
	assert.NotNil(t, rt.Metrics)
	assert.NotNil(t, rt.Scheduler)
	assert.Empty(t, rt.Background)
}

func TestBuild_SyncWithoutAccountFails(t *testing.T) {
	rt, err := build(cli.Options{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	require.True(t, rt.Coordinator.Start())
	<-rt.Coordinator.Done()

	run, ok := rt.Coordinator.LastRun()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeFailed, run.Outcome)
	assert.Contains(t, run.Message, domain.ErrAuthRequired.Error())

	runs, err := rt.History.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestBuild_DaemonComponents(t *testing.T) {
	dir := t.TempDir()
	cfg := `[scheduler]
enabled = false

[daemon]
watch = true
memory_limit_mb = 256
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0o600))

	rt, err := build(cli.Options{ConfigDir: dir, DataDir: filepath.Join(dir, "elsewhere")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Nil(t, rt.Scheduler)
	require.Len(t, rt.Background, 2)
	assert.Equal(t, "watcher", rt.Background[0].Name)
	assert.Equal(t, "memory monitor", rt.Background[1].Name)
	assert.FileExists(t, filepath.Join(dir, "elsewhere", "notes.db"))
}

func TestLoadSettings_OpensNoStore(t *testing.T) {
	dir := t.TempDir()
	cfg := `[daemon]
listen = "127.0.0.1:7777"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0o600))

	settings, err := loadSettings(cli.Options{ConfigDir: dir})

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7777", settings.Daemon.Listen)
	assert.NoDirExists(t, filepath.Join(dir, "data"))
}
