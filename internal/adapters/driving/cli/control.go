package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesync/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/notesync/internal/adapters/driving/tui"
	"github.com/custodia-labs/notesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notesync/internal/core/domain"
)

// daemonAddr overrides daemon.listen for the control commands.
var daemonAddr string

// daemonClient is the control surface of a running daemon.
type daemonClient interface {
	Start(ctx context.Context) (bool, error)
	Cancel(ctx context.Context) (bool, error)
	Status(ctx context.Context) (*httpapi.Status, error)
	Follow(ctx context.Context, fn func(domain.ProgressState) bool) error
}

// newDaemonClient is replaced in tests.
var newDaemonClient = func(addr string) daemonClient {
	return httpapi.NewClient(addr)
}

func controlClient() daemonClient {
	addr := daemonAddr
	if addr == "" {
		addr = active.Settings.Daemon.Listen
	}
	if addr == "" {
		addr = domain.DefaultListenAddress
	}
	return newDaemonClient(addr)
}

func daemonError(err error) error {
	if errors.Is(err, httpapi.ErrDaemonUnavailable) {
		return fmt.Errorf("%w (start it with 'notesync daemon')", err)
	}
	return err
}

var startSyncCmd = &cobra.Command{
	Use:   "start-sync",
	Short: "Ask the daemon to start a sync",
	Long:  `Start a sync in the running daemon. Does nothing if one is already running.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		started, err := controlClient().Start(cmd.Context())
		if err != nil {
			return daemonError(err)
		}
		if started {
			cmd.Println("Sync started")
		} else {
			cmd.Println("A sync is already running")
		}
		return nil
	},
}

var cancelSyncCmd = &cobra.Command{
	Use:   "cancel-sync",
	Short: "Ask the daemon to cancel the running sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cancelled, err := controlClient().Cancel(cmd.Context())
		if err != nil {
			return daemonError(err)
		}
		if cancelled {
			cmd.Println("Cancellation requested")
		} else {
			cmd.Println("No sync is running")
		}
		return nil
	},
}

var isSyncingCmd = &cobra.Command{
	Use:   "is-syncing",
	Short: "Report whether the daemon is syncing",
	Long: `Print true or false. The exit status is zero either way; use
'notesync progress' for the message.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, err := controlClient().Status(cmd.Context())
		if err != nil {
			return daemonError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), status.Syncing)
		return nil
	},
}

var progressFollow bool

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show the daemon's sync progress",
	Long: `Print the current progress message and the last finished run.

With --follow, print each progress update until the running sync finishes.`,
	Args: cobra.NoArgs,
	RunE: runProgress,
}

func init() {
	for _, c := range []*cobra.Command{startSyncCmd, cancelSyncCmd, isSyncingCmd, progressCmd} {
		c.Flags().StringVar(&daemonAddr, "addr", "", "daemon address (default from daemon.listen)")
		c.Annotations = map[string]string{annotationSettingsOnly: "true"}
		rootCmd.AddCommand(c)
	}
	progressCmd.Flags().BoolVarP(&progressFollow, "follow", "f", false, "stream updates until the sync finishes")
}

func runProgress(cmd *cobra.Command, _ []string) error {
	st := styles.DefaultStyles()
	client := controlClient()

	status, err := client.Status(cmd.Context())
	if err != nil {
		return daemonError(err)
	}
	printStatus(cmd, st, status)
	if !progressFollow || !status.Syncing {
		return nil
	}

	last := status.Message
	err = client.Follow(cmd.Context(), func(s domain.ProgressState) bool {
		if !s.Syncing {
			return false
		}
		if s.Message != last {
			cmd.Println(st.Normal.Render(s.Message))
			last = s.Message
		}
		return true
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return daemonError(err)
	}

	final, err := client.Status(cmd.Context())
	if err != nil {
		return daemonError(err)
	}
	if final.LastRun != nil {
		cmd.Println(tui.RenderRun(st, final.LastRun))
	}
	return nil
}

func printStatus(cmd *cobra.Command, st *styles.Styles, status *httpapi.Status) {
	if status.Syncing {
		cmd.Println(st.Title.Render("Syncing"))
		if status.Message != "" {
			cmd.Println(st.Normal.Render(status.Message))
		}
		return
	}
	cmd.Println(st.Muted.Render("Idle"))
	if status.LastRun != nil {
		cmd.Printf("Last run: %s\n", tui.RenderRun(st, status.LastRun))
	}
}
