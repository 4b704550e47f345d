// Package cli provides the notesync command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
	"github.com/custodia-labs/notesync/internal/logger"
)

// version is set at build time.
var version = "dev"

// SetVersion sets the version reported by `notesync version`.
func SetVersion(v string) {
	version = v
}

// Command annotations read by setupRuntime.
const (
	// annotationNoRuntime marks commands that run without opening the stores.
	annotationNoRuntime = "notesync/no-runtime"

	// annotationSettingsOnly marks commands that only read configuration,
	// such as the daemon control commands.
	annotationSettingsOnly = "notesync/settings-only"

	// annotationExitWhenIdle builds the host in exit-when-idle mode.
	annotationExitWhenIdle = "notesync/exit-when-idle"
)

// Options are the global flags handed to the runtime builder.
type Options struct {
	ConfigDir    string
	DataDir      string
	Account      string
	Verbose      bool
	ExitWhenIdle bool
}

// BackgroundTask is a long-running component of the daemon.
type BackgroundTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runtime holds everything the commands drive. It is built once per
// invocation by the function passed to SetRuntimeBuilder.
type Runtime struct {
	Settings    domain.Settings
	Config      driven.ConfigStore
	Coordinator driving.SyncCoordinator
	Progress    driving.ProgressChannel
	Accounts    driving.AccountService
	History     driving.SyncHistory

	// Scheduler is nil when disabled in config.
	Scheduler driving.Scheduler

	// Background holds the watcher and the memory pressure monitor.
	Background []BackgroundTask

	// Metrics serves the Prometheus exposition, if metrics are enabled.
	Metrics http.Handler

	// Released is closed when the host no longer needs to stay alive.
	Released <-chan struct{}

	// Close releases stores and providers.
	Close func() error
}

// RuntimeBuilder builds the runtime for the parsed global flags.
type RuntimeBuilder func(opts Options) (*Runtime, error)

// SettingsLoader reads configuration without opening stores or starting
// a coordinator.
type SettingsLoader func(opts Options) (domain.Settings, error)

var (
	builder        RuntimeBuilder
	settingsLoader SettingsLoader
	active         *Runtime
	opts           Options
)

// SetRuntimeBuilder sets how commands obtain their runtime.
func SetRuntimeBuilder(b RuntimeBuilder) {
	builder = b
}

// SetSettingsLoader sets how settings-only commands read configuration.
func SetSettingsLoader(l SettingsLoader) {
	settingsLoader = l
}

var rootCmd = &cobra.Command{
	Use:   "notesync",
	Short: "Sync local notes with Google Tasks",
	Long: `notesync keeps a local notes database in sync with a Google Tasks list.

Run a one-off sync in the foreground with 'notesync sync', or keep
'notesync daemon' running and control it with start-sync, cancel-sync,
is-syncing and progress.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRuntime,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeRuntime()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigDir, "config-dir", "", "configuration directory (default ~/.notesync)")
	flags.StringVar(&opts.DataDir, "data-dir", "", "data directory (default ~/.notesync/data)")
	flags.StringVar(&opts.Account, "account", "", "account to sync (default from config)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
}

func setupRuntime(cmd *cobra.Command, _ []string) error {
	if opts.Verbose {
		logger.SetVerbose(true)
	}
	if cmd.Annotations[annotationNoRuntime] == "true" || active != nil {
		return nil
	}
	if cmd.Annotations[annotationSettingsOnly] == "true" {
		return setupSettings()
	}
	if cmd.Annotations[annotationExitWhenIdle] == "true" {
		opts.ExitWhenIdle = true
	}
	if builder == nil {
		return errors.New("runtime not configured")
	}

	rt, err := builder(opts)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	if rt.Settings.Verbose {
		logger.SetVerbose(true)
	}
	active = rt
	return nil
}

func setupSettings() error {
	if settingsLoader == nil {
		return errors.New("settings loader not configured")
	}
	settings, err := settingsLoader(opts)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.Verbose {
		logger.SetVerbose(true)
	}
	active = &Runtime{Settings: settings}
	return nil
}

func closeRuntime() error {
	rt := active
	active = nil
	if rt == nil || rt.Close == nil {
		return nil
	}
	return rt.Close()
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if closeErr := closeRuntime(); err == nil {
		err = closeErr
	}
	return err
}
