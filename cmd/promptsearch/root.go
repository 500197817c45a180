package main

import (
	"fmt"

	"promptsearch/internal/appversion"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root promptsearch command with all subcommands
// attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "promptsearch",
		Short:         "Index and search your AI CLI session logs",
		Long:          "promptsearch incrementally ingests session logs from your AI CLI tool\ninto a local SQLite index and serves keyword search over past prompts.",
		Version:       fmt.Sprintf("promptsearch %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newRefreshCmd(),
		newSearchCmd(),
		newSessionsCmd(),
		newInfoCmd(),
		newWatchCmd(),
		newTuiCmd(),
	)

	return cmd
}
