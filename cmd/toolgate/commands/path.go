// Package commands – path.go validates a file path against the workspace
// root and prints its canonical location.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPathCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "path <path>",
		Short: "Validate a file path against the workspace root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			g, cleanup, err := newGateway(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			var resolved string
			switch mode {
			case "read":
				resolved, err = g.CheckRead(args[0])
			case "write":
				resolved, err = g.CheckWrite(args[0])
			case "any":
				resolved, err = g.CheckPath(args[0])
			default:
				return fmt.Errorf("invalid --mode %q: must be read, write, or any", mode)
			}
			if err != nil {
				return fmt.Errorf("denied: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "any", "access mode to validate: read, write, or any")
	return cmd
}
