// Package commands – audit.go inspects the persistent decision trail.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"toolgate/pkg/toolgate/audit"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the gateway decision audit trail",
	}
	cmd.AddCommand(newAuditRecentCmd(), newAuditCountCmd())
	return cmd
}

func newAuditRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent audited decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAuditStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.Recent(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "no audit events recorded")
				return nil
			}
			for _, ev := range events {
				line := fmt.Sprintf("[%s] %s %s %q",
					ev.CreatedAt.Format("2006-01-02 15:04:05"), ev.Decision, ev.Kind, ev.Input)
				if ev.Reason != "" {
					line += " reason=" + ev.Reason
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of events to show")
	return cmd
}

func newAuditCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the total number of audited decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAuditStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}

// openAuditStore opens the configured SQLite trail read-side. Pruning is not
// scheduled here; inspection should not mutate the trail.
func openAuditStore(cmd *cobra.Command) (*audit.SQLiteRecorder, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return audit.NewSQLiteRecorder(cfg.AuditDBPath(), 0, "", nil)
}
