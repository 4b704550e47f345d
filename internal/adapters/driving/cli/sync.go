package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/notesync/internal/adapters/driving/tui"
	"github.com/custodia-labs/notesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
)

var syncTUI bool

// isTerminal is replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync in the foreground",
	Long: `Run one sync against the signed-in account and wait for it to finish.

Progress is printed as it is published. Press Ctrl+C to cancel the run;
the sync stops at its next checkpoint. With --tui a spinner view is shown
when stdout is a terminal.`,
	Annotations: map[string]string{annotationExitWhenIdle: "true"},
	RunE:        runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncTUI, "tui", false, "show an interactive progress view")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	rt := active
	if !rt.Coordinator.Start() {
		cmd.Println("A sync is already running, waiting for it to finish")
	}

	if syncTUI && isTerminal() {
		run, ok, err := tui.Watch(cmd.Context(), rt.Coordinator, rt.Progress)
		if err != nil {
			rt.Coordinator.Cancel()
			<-rt.Coordinator.Done()
			return err
		}
		if !ok {
			return nil
		}
		return runError(run)
	}

	return followSync(cmd, rt)
}

// followSync prints progress lines until the run completes. The first
// interrupt cancels the run; the process still waits for the engine to
// stop so the cursor is never left half written.
func followSync(cmd *cobra.Command, rt *Runtime) error {
	st := styles.DefaultStyles()

	updates := make(chan domain.ProgressState, 16)
	unsubscribe := rt.Progress.Subscribe(driving.ObserverFunc(func(s domain.ProgressState) {
		select {
		case updates <- s:
		default:
		}
	}))
	defer unsubscribe()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	if msg := rt.Coordinator.CurrentProgress(); msg != "" {
		cmd.Println(st.Normal.Render(msg))
	}

	show := func(s domain.ProgressState) {
		if s.Syncing && s.Message != "" {
			cmd.Println(st.Normal.Render(s.Message))
		}
	}

	done := rt.Coordinator.Done()
	for {
		select {
		case s := <-updates:
			show(s)
		case <-interrupts:
			if rt.Coordinator.Cancel() {
				cmd.Println(st.Warning.Render("Cancelling..."))
			}
		case <-done:
			for drained := false; !drained; {
				select {
				case s := <-updates:
					show(s)
				default:
					drained = true
				}
			}
			run, ok := rt.Coordinator.LastRun()
			if !ok {
				return nil
			}
			cmd.Println(tui.RenderRun(st, &run))
			return runError(run)
		}
	}
}

var errSyncFailed = errors.New("sync failed")

func runError(run domain.SyncRun) error {
	if run.Outcome == domain.OutcomeFailed {
		return fmt.Errorf("%w: %s", errSyncFailed, run.Message)
	}
	return nil
}
