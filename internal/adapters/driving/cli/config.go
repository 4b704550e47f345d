package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// secretKeys are masked on output and prompted for when no value is given.
var secretKeys = map[string]bool{
	"google.client_secret": true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings in config.toml.

Keys:
  sync.tasklist            remote task list holding notes (default "Notes")
  sync.interval            periodic sync interval, e.g. "30m"
  sync.retry_initial       first retry delay after a failed sync
  sync.retry_max           longest retry delay
  scheduler.enabled        run periodic syncs in the daemon
  google.client_id         OAuth client ID
  google.client_secret     OAuth client secret
  account.default          account to sync when several are signed in
  daemon.listen            control API address
  daemon.watch             sync when local notes change
  daemon.memory_limit_mb   cancel a sync above this heap size
  log.verbose              enable debug logging`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a raw config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, ok := active.Config.Get(args[0])
		if !ok {
			return fmt.Errorf("%s is not set", args[0])
		}
		if secretKeys[args[0]] {
			fmt.Fprintln(cmd.OutOrStdout(), maskSecret(fmt.Sprint(val)))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a config value",
	Long: `Set a config value and save the file. Booleans and integers are stored
typed. Secrets are read from the terminal when the value is omitted.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := active.Config.Delete(args[0]); err != nil {
			return fmt.Errorf("unset %s: %w", args[0], err)
		}
		cmd.Printf("Unset %s\n", args[0])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the raw values in config.toml",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		for _, key := range active.Config.Keys() {
			val, _ := active.Config.Get(key)
			if secretKeys[key] {
				val = maskSecret(fmt.Sprint(val))
			}
			fmt.Fprintf(out, "%s = %v\n", key, val)
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), active.Config.Path())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s := active.Settings

	cmd.Println("Sync:")
	cmd.Printf("  Task list: %s\n", s.TaskList)
	cmd.Println()

	cmd.Println("Scheduler:")
	cmd.Printf("  Enabled: %t\n", s.Scheduler.Enabled)
	if s.Scheduler.Enabled {
		task := s.Scheduler.GetTaskConfig(domain.TaskIDNoteSync)
		cmd.Printf("  Interval: %s\n", task.Interval)
		cmd.Printf("  Retry: %s up to %s\n", task.RetryInitial, task.RetryMax)
	}
	cmd.Println()

	cmd.Println("Google:")
	if s.Google.ClientID != "" {
		cmd.Printf("  Client ID: %s\n", s.Google.ClientID)
	} else {
		cmd.Printf("  Client ID: (not set)\n")
	}
	if s.Google.ClientSecret != "" {
		cmd.Printf("  Client secret: %s\n", maskSecret(s.Google.ClientSecret))
	} else {
		cmd.Printf("  Client secret: (not set)\n")
	}
	if s.DefaultAccount != "" {
		cmd.Printf("  Default account: %s\n", s.DefaultAccount)
	}
	cmd.Println()

	cmd.Println("Daemon:")
	cmd.Printf("  Listen: %s\n", s.Daemon.Listen)
	cmd.Printf("  Watch: %t\n", s.Daemon.Watch)
	if s.Daemon.MemoryLimit > 0 {
		cmd.Printf("  Memory limit: %d MB\n", s.Daemon.MemoryLimit>>20)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]

	var raw string
	switch {
	case len(args) == 2:
		raw = args[1]
	case secretKeys[key]:
		cmd.Printf("%s: ", key)
		raw = readSecret(cmd.InOrStdin())
		cmd.Println()
	default:
		return errors.New("a value is required")
	}

	if err := active.Config.Set(key, parseValue(raw)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

// parseValue keeps booleans and integers typed in the TOML file.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}

func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
