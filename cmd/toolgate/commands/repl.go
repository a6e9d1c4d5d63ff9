// Package commands – repl.go runs an interactive session against the
// gateway: each line is checked like `toolgate check`, with the session
// allow-list accumulating approvals across lines. The config file is watched
// so rule edits apply without restarting.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"toolgate/pkg/toolgate/config"
	"toolgate/pkg/toolgate/policy"
)

// gatewayAPI is the slice of the gateway the line handler needs; tests
// substitute a stub.
type gatewayAPI interface {
	CheckCommand(command string) policy.Verdict
	ApproveCommand(prefix string)
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session for checking commands and paths",
		Args:  cobra.NoArgs,
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

			watcher, err := config.NewWatcher(configPath(cmd), slog.Default(), g.Reload)
			if err != nil {
				slog.Warn("config hot reload unavailable", "err", err)
			} else {
				defer watcher.Close()
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "toolgate> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("starting readline: %w", err)
			}
			defer rl.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Enter commands to check. Prefix with :read or :write to validate paths; :quit exits.")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
					continue
				case line == ":quit" || line == ":exit":
					return nil
				case strings.HasPrefix(line, ":read "):
					resolved, err := g.CheckRead(strings.TrimSpace(strings.TrimPrefix(line, ":read ")))
					printPathResult(out, resolved, err)
				case strings.HasPrefix(line, ":write "):
					resolved, err := g.CheckWrite(strings.TrimSpace(strings.TrimPrefix(line, ":write ")))
					printPathResult(out, resolved, err)
				default:
					checkLine(out, g, line)
				}
			}
		},
	}
}

func printPathResult(out io.Writer, resolved string, err error) {
	if err != nil {
		fmt.Fprintf(out, "denied: %v\n", err)
		return
	}
	fmt.Fprintf(out, "allowed: %s\n", resolved)
}

// checkLine evaluates one command line, prompting through soft denials.
func checkLine(out io.Writer, g gatewayAPI, line string) {
	verdict := g.CheckCommand(line)
	if verdict.AllAllowed {
		fmt.Fprintln(out, "allowed")
		return
	}
	if verdict.IsHardDenial {
		fmt.Fprintf(out, "denied: %s\n", verdict.BlockReason)
		return
	}

	prefixes := approvalPrefixes(verdict.DisallowedCommands)
	approved, err := confirmCommands(prefixes)
	if err != nil || !approved {
		fmt.Fprintf(out, "denied: %s\n", verdict.BlockReason)
		return
	}
	for _, p := range prefixes {
		g.ApproveCommand(p)
	}
	if verdict = g.CheckCommand(line); verdict.AllAllowed {
		fmt.Fprintln(out, "allowed (approved for this session)")
	} else {
		fmt.Fprintf(out, "denied: %s\n", verdict.BlockReason)
	}
}
