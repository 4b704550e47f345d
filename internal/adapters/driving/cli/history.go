package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesync/internal/adapters/driving/tui"
	"github.com/custodia-labs/notesync/internal/adapters/driving/tui/styles"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sync runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if active.History == nil {
		return errors.New("sync history not available")
	}
	st := styles.DefaultStyles()

	runs, err := active.History.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println(st.Muted.Render("No syncs yet"))
		return nil
	}

	for i := range runs {
		run := &runs[i]
		cmd.Printf("%s  %s\n", run.StartedAt.Local().Format(time.DateTime), tui.RenderRun(st, run))
	}
	return nil
}
