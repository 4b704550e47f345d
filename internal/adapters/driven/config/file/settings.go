package file

import (
	"time"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/logger"
)

// Configuration keys understood by LoadSettings.
const (
	KeySyncTaskList      = "sync.tasklist"
	KeySyncInterval      = "sync.interval"
	KeySyncRetryInitial  = "sync.retry_initial"
	KeySyncRetryMax      = "sync.retry_max"
	KeySchedulerEnabled  = "scheduler.enabled"
	KeyGoogleClientID    = "google.client_id"
	KeyGoogleSecret      = "google.client_secret"
	KeyAccountDefault    = "account.default"
	KeyDaemonListen      = "daemon.listen"
	KeyDaemonWatch       = "daemon.watch"
	KeyDaemonMemoryLimit = "daemon.memory_limit_mb"
	KeyLogVerbose        = "log.verbose"
)

// minInterval keeps a misconfigured interval from hammering the remote API.
const minInterval = time.Minute

// LoadSettings builds typed settings from the config store.
// Missing or invalid values fall back to domain.DefaultSettings.
func LoadSettings(store driven.ConfigStore) domain.Settings {
	settings := domain.DefaultSettings()
	if store == nil {
		return settings
	}

	if v := store.GetString(KeySyncTaskList); v != "" {
		settings.TaskList = v
	}

	task := settings.Scheduler.GetTaskConfig(domain.TaskIDNoteSync)
	if d, ok := duration(store, KeySyncInterval); ok {
		if d < minInterval {
			logger.Warn("config: %s %s below minimum, using %s", KeySyncInterval, d, minInterval)
			d = minInterval
		}
		task.Interval = d
	}
	if d, ok := duration(store, KeySyncRetryInitial); ok {
		task.RetryInitial = d
	}
	if d, ok := duration(store, KeySyncRetryMax); ok {
		task.RetryMax = d
	}
	settings.Scheduler.TaskConfigs[domain.TaskIDNoteSync] = task

	if _, ok := store.Get(KeySchedulerEnabled); ok {
		settings.Scheduler.Enabled = store.GetBool(KeySchedulerEnabled)
	}

	settings.Google.ClientID = store.GetString(KeyGoogleClientID)
	settings.Google.ClientSecret = store.GetString(KeyGoogleSecret)
	settings.DefaultAccount = store.GetString(KeyAccountDefault)

	if v := store.GetString(KeyDaemonListen); v != "" {
		settings.Daemon.Listen = v
	}
	settings.Daemon.Watch = store.GetBool(KeyDaemonWatch)
	if mb := store.GetInt(KeyDaemonMemoryLimit); mb > 0 {
		settings.Daemon.MemoryLimit = uint64(mb) << 20
	}

	settings.Verbose = store.GetBool(KeyLogVerbose)

	return settings
}

// duration reads a Go duration string ("30m") or a number of seconds.
func duration(store driven.ConfigStore, key string) (time.Duration, bool) {
	val, ok := store.Get(key)
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logger.Warn("config: invalid duration for %s: %q", key, v)
			return 0, false
		}
		return d, true
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Second, true
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Second, true
		}
	}

	logger.Warn("config: invalid duration for %s: %v", key, val)
	return 0, false
}
