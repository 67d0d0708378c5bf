// Command foundrycraftd runs the foundrycraft simulation behind a
// line-oriented console, replacing the teacher's flag-based cmd/server with
// a cobra root command (spf13/cobra, already in the teacher's dependency
// graph) carrying a run and a migrate-save subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foundrycraft/foundrycraft/pkg/consolefmt"
)

func main() {
	root := &cobra.Command{
		Use:           "foundrycraftd",
		Short:         "foundrycraft voxel factory-automation simulation daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newMigrateSaveCmd())

	if err := root.Execute(); err != nil {
		// A startup error (bad config, unreadable save, unopenable log file)
		// is spec §6's exit code 1. Exit code 2 is reserved for an
		// unrecoverable error mid-simulation and is raised directly from
		// runSimulation, never by returning here.
		fmt.Fprintln(os.Stderr, consolefmt.Err(err.Error()))
		os.Exit(1)
	}
}
