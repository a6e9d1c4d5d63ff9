// Package commands – check.go evaluates a single shell command against the
// gateway. Hard denials exit non-zero immediately; soft denials offer an
// interactive confirmation when running on a terminal.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"toolgate/pkg/toolgate/policy"
	"toolgate/pkg/toolgate/shell"
)

func newCheckCmd() *cobra.Command {
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "check <command>",
		Short: "Check whether a shell command is allowed",
		Args:  cobra.MinimumNArgs(1),
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

			command := strings.Join(args, " ")
			verdict := g.CheckCommand(command)

			if verdict.AllAllowed {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
				return nil
			}
			if verdict.IsHardDenial || nonInteractive || !isInteractive() {
				return denialError(verdict)
			}

			prefixes := approvalPrefixes(verdict.DisallowedCommands)
			approved, err := confirmCommands(prefixes)
			if err != nil {
				return fmt.Errorf("confirmation prompt: %w", err)
			}
			if !approved {
				return denialError(verdict)
			}
			for _, p := range prefixes {
				g.ApproveCommand(p)
			}
			if verdict = g.CheckCommand(command); !verdict.AllAllowed {
				return denialError(verdict)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "allowed (approved for this session)")
			return nil
		},
	}

	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false,
		"never prompt; treat soft denials as denials")
	return cmd
}

// confirmCommands asks the user to approve the listed command prefixes for
// the rest of the session.
func confirmCommands(prefixes []string) (bool, error) {
	var approved bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Allow these command prefixes for this session?").
			Description(strings.Join(prefixes, "\n")).
			Affirmative("Allow").
			Negative("Deny").
			Value(&approved),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return approved, nil
}

// approvalPrefixes maps each denied sub-command to the prefix an approval
// grants: the root executable name, so approving "npm test" also covers a
// later "npm run build". Falls back to the full command when no root can be
// extracted.
func approvalPrefixes(commands []string) []string {
	seen := make(map[string]struct{}, len(commands))
	prefixes := make([]string, 0, len(commands))
	for _, c := range commands {
		p := c
		if root, ok := shell.CommandRoot(c); ok {
			p = root
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		prefixes = append(prefixes, p)
	}
	return prefixes
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func denialError(v policy.Verdict) error {
	if len(v.DisallowedCommands) > 0 {
		return fmt.Errorf("denied: %s (%s)", v.BlockReason, strings.Join(v.DisallowedCommands, "; "))
	}
	return fmt.Errorf("denied: %s", v.BlockReason)
}
