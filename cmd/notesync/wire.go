package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/notesync/internal/adapters/driven/auth"
	"github.com/custodia-labs/notesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/notesync/internal/adapters/driven/gtasks"
	"github.com/custodia-labs/notesync/internal/adapters/driven/host"
	"github.com/custodia-labs/notesync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/notesync/internal/adapters/driving/cli"
	"github.com/custodia-labs/notesync/internal/adapters/driving/watch"
	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/core/services"
	"github.com/custodia-labs/notesync/internal/logger"
	"github.com/custodia-labs/notesync/internal/telemetry"
)

// metricsShutdownTimeout bounds the final flush of the meter provider.
const metricsShutdownTimeout = 5 * time.Second

// loadSettings reads the config file only.
func loadSettings(opts cli.Options) (domain.Settings, error) {
	config, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("open config: %w", err)
	}
	return file.LoadSettings(config), nil
}

// build wires the adapters around one SyncCoordinator.
func build(opts cli.Options) (*cli.Runtime, error) {
	config, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settings := file.LoadSettings(config)

	dataDir := opts.DataDir
	if dataDir == "" && opts.ConfigDir != "" {
		dataDir = filepath.Join(opts.ConfigDir, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store: %s", store.Path())

	provider, err := telemetry.NewPrometheusProvider()
	if err != nil {
		store.Close()
		return nil, err
	}
	metrics, err := telemetry.NewSyncMetrics(provider)
	if err != nil {
		store.Close()
		return nil, err
	}

	accounts := store.AccountStore()
	states := store.SyncStateStore()
	notes := store.NoteStore()

	engine := gtasks.NewEngine(
		clientFactory(settings.Google, accounts),
		notes,
		states,
		gtasks.WithTaskListName(settings.TaskList),
	)

	preferred := opts.Account
	if preferred == "" {
		preferred = settings.DefaultAccount
	}

	process := host.NewProcess(opts.ExitWhenIdle)
	progress := services.NewProgressBroadcaster()
	coordinator := services.NewSyncCoordinator(
		engine,
		auth.NewResolver(accounts, preferred),
		progress,
		services.WithHostLifecycle(process),
		services.WithRunRecorder(states),
		services.WithSyncMetrics(metrics),
	)

	rt := &cli.Runtime{
		Settings:    settings,
		Config:      config,
		Coordinator: coordinator,
		Progress:    progress,
		Accounts:    auth.NewAccounts(settings.Google, accounts, states),
		History:     states,
		Metrics:     provider.Handler(),
		Released:    process.Released(),
		Close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			return errors.Join(provider.Shutdown(ctx), store.Close())
		},
	}

	if settings.Scheduler.Enabled {
		rt.Scheduler = services.NewScheduler(settings.Scheduler, store.SchedulerStore(), coordinator)
	}

	if settings.Daemon.Watch {
		w := watch.NewWatcher(filepath.Dir(store.Path()), sqlite.DatabaseFile, notes, coordinator)
		rt.Background = append(rt.Background, cli.BackgroundTask{Name: "watcher", Run: w.Run})
	}

	monitor := services.NewPressureMonitor(coordinator, settings.Daemon.MemoryLimit, settings.Daemon.MemoryCheckInterval)
	if monitor.Enabled() {
		rt.Background = append(rt.Background, cli.BackgroundTask{Name: "memory monitor", Run: monitor.Run})
	}

	return rt, nil
}

// clientFactory builds Google Tasks clients for stored accounts. Without an
// OAuth client every sync fails with domain.ErrNotConfigured.
func clientFactory(client domain.OAuthClientConfig, accounts driven.AccountStore) gtasks.ClientFactory {
	config, err := auth.NewConfig(client, "")
	if err != nil {
		return func(context.Context, *domain.Account) (gtasks.TasksClient, error) {
			return nil, err
		}
	}
	return gtasks.NewClientFactory(auth.NewTokenSourceFunc(config, accounts))
}
