package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foundrycraft/foundrycraft/pkg/save"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

func newMigrateSaveCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "migrate-save SOURCE",
		Short: "Decode a save file and re-encode it at the current version",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return migrateSave(args[0], output)
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "destination path (defaults to SOURCE with a .v2 suffix)")
	return cmd
}

// migrateSave drives the V1->V2 path standalone, outside a running
// simulation: save.Decode already migrates on read, so this just decodes
// and re-encodes at save.CurrentVersion.
func migrateSave(source, output string) error {
	reg := taxonomy.NewDefaultRegistry()

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("opening %s: %w", source, err)
	}
	defer in.Close()

	env, err := save.Decode(in, reg)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", source, err)
	}

	if output == "" {
		output = source + ".v2"
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer out.Close()

	if err := save.Encode(out, env, false); err != nil {
		return fmt.Errorf("encoding %s: %w", output, err)
	}

	fmt.Printf("migrated %s -> %s (version %d)\n", source, output, env.Version)
	return nil
}
