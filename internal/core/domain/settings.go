package domain

import "time"

// Default values for Settings.
const (
	DefaultTaskListName  = "Notes"
	DefaultListenAddress = "127.0.0.1:7878"
)

// Settings is the typed view of the configuration file.
type Settings struct {
	// TaskList is the name of the remote list that holds notes.
	TaskList string

	// Scheduler configures periodic and retry syncs.
	Scheduler SchedulerConfig

	// Google holds the OAuth client used for sign-in.
	Google OAuthClientConfig

	// DefaultAccount selects the account when several are stored.
	DefaultAccount string

	// Daemon configures the long-running host process.
	Daemon DaemonConfig

	// Verbose enables debug logging.
	Verbose bool
}

// OAuthClientConfig identifies the OAuth application.
type OAuthClientConfig struct {
	ClientID     string
	ClientSecret string
}

// IsConfigured reports whether a client ID is set.
func (c OAuthClientConfig) IsConfigured() bool {
	return c.ClientID != ""
}

// DaemonConfig configures `notesync daemon`.
type DaemonConfig struct {
	// Listen is the address of the control API.
	Listen string

	// Watch starts a sync when the local notes database changes.
	Watch bool

	// MemoryLimit cancels the running sync when heap usage exceeds it.
	// Zero disables the check.
	MemoryLimit uint64

	// MemoryCheckInterval is how often heap usage is sampled.
	MemoryCheckInterval time.Duration
}

// DefaultSettings returns the settings used when the config file is empty.
func DefaultSettings() Settings {
	return Settings{
		TaskList:  DefaultTaskListName,
		Scheduler: DefaultSchedulerConfig(),
		Daemon: DaemonConfig{
			Listen:              DefaultListenAddress,
			MemoryCheckInterval: 10 * time.Second,
		},
	}
}
