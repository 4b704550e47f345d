// Command notesync keeps a local notes database in sync with Google Tasks.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/notesync/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetRuntimeBuilder(build)
	cli.SetSettingsLoader(loadSettings)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
