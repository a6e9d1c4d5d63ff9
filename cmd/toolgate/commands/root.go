// Package commands implements the toolgate CLI commands using cobra.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"toolgate/pkg/toolgate/audit"
	"toolgate/pkg/toolgate/config"
	"toolgate/pkg/toolgate/gateway"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toolgate",
		Short: "toolgate - command and path security gateway",
		Long: `toolgate guards agent tool execution: it checks shell commands against
allow/block rules, detects command substitution and injection, and confines
file access to a workspace root.

Examples:
  toolgate check "git status && npm test"
  toolgate path --mode write reports/out.txt
  toolgate repl
  toolgate audit recent`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newCheckCmd(),
		newPathCmd(),
		newReplCmd(),
		newAuditCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}

// defaultConfigPath is used when --config is not given.
const defaultConfigPath = "toolgate.yaml"

// loadConfig reads the configuration honoring the --config and --verbose
// flags and installs the process-wide logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(cfg.Logging, verbose)
	return cfg, nil
}

// configPath resolves the effective config file path for watchers.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return defaultConfigPath
	}
	return path
}

// setupLogging installs the slog default handler per the logging section.
func setupLogging(lc config.LoggingConfig, verbose bool) {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newGateway builds the gateway with the configured audit recorder.
func newGateway(cfg *config.Config) (*gateway.Gateway, func(), error) {
	logger := slog.Default()

	var recorder audit.Recorder
	if cfg.Audit.Enabled {
		sqlite, err := audit.NewSQLiteRecorder(
			cfg.AuditDBPath(), cfg.Audit.RetentionDays, cfg.Audit.PruneSchedule, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening audit store: %w", err)
		}
		recorder = sqlite
	} else {
		recorder = audit.NewLogRecorder(logger)
	}

	g := gateway.New(cfg, recorder, logger)
	cleanup := func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("closing audit recorder", "err", err)
		}
	}
	return g, cleanup, nil
}
