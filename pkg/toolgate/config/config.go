// Package config – config.go defines the gateway configuration: the allow
// and block tool lists, the workspace root for path confinement, and the
// audit and logging sections. Values load from YAML with environment-variable
// expansion; see loader.go.
package config

import (
	"os"
	"path/filepath"
)

// Config is the full gateway configuration.
type Config struct {
	// CoreTools lists the enabled tools. Shell entries follow the
	// `run_shell_command(prefix)` convention; a bare `run_shell_command`
	// enables every command.
	CoreTools []string `yaml:"core_tools"`

	// ExcludeTools lists blocked tools, same syntax. Block entries beat
	// allow entries and session approvals.
	ExcludeTools []string `yaml:"exclude_tools"`

	// WorkspaceRoot confines file reads and writes. Defaults to the
	// current working directory.
	WorkspaceRoot string `yaml:"workspace_root"`

	// DefaultDeny selects the resolution mode when no session allow-list
	// is supplied by the caller: true starts every session with an empty
	// allow-list, false admits whatever the block list clears.
	DefaultDeny bool `yaml:"default_deny"`

	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
}

// AuditConfig controls the decision audit trail.
type AuditConfig struct {
	// Enabled turns persistent auditing on. Decisions are always logged;
	// this controls the SQLite sink.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file. Empty selects
	// ~/.toolgate/audit.db.
	Path string `yaml:"path"`

	// RetentionDays prunes events older than this. Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for the retention sweep.
	PruneSchedule string `yaml:"prune_schedule"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is present:
// default-allow mode with a block list covering commands that destroy data
// or hand control to a remote party.
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &Config{
		CoreTools: []string{"run_shell_command"},
		ExcludeTools: []string{
			"run_shell_command(rm -rf /)",
			"run_shell_command(sudo)",
			"run_shell_command(mkfs)",
			"run_shell_command(dd)",
			"run_shell_command(shutdown)",
			"run_shell_command(reboot)",
			"run_shell_command(curl)",
			"run_shell_command(wget)",
			"run_shell_command(nc)",
		},
		WorkspaceRoot: wd,
		Audit: AuditConfig{
			Enabled:       true,
			RetentionDays: 30,
			PruneSchedule: "@daily",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// AuditDBPath resolves the audit database location, falling back to the
// per-user default when unset.
func (c *Config) AuditDBPath() string {
	if c.Audit.Path != "" {
		return c.Audit.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".toolgate", "audit.db")
	}
	return filepath.Join(home, ".toolgate", "audit.db")
}
