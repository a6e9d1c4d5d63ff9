// Package config – loader.go reads the YAML configuration file, loading .env
// files first and expanding environment-variable references before parsing.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches environment variable references in config values:
//
//   - ${VAR_NAME}          - simple variable
//   - ${VAR_NAME:-default} - default value if not set
//   - $VAR_NAME            - bare variable (upper-case only)
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}|\$([A-Z_][A-Z0-9_]*)`)

// Load reads and parses a YAML configuration file. .env files are loaded
// first (without overriding existing environment), then variable references
// in the YAML are expanded. A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse([]byte(expandEnvVars(string(data))))
	if err != nil {
		return nil, err
	}

	resolveWorkspaceRoot(cfg, path)
	checkFilePermissions(path)
	return cfg, nil
}

// Parse parses YAML bytes into a Config, overlaying them on the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	return cfg, nil
}

// ---------- Internal ----------

// loadEnvFiles loads .env files from standard locations. godotenv.Load does
// NOT overwrite existing env vars.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces ${VAR}, ${VAR:-default}, and $VAR references with
// their environment values. Unset variables without a default keep the
// placeholder so the YAML error points at the real problem.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		if name == "" {
			name = sub[3]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if sub[2] != "" {
			return sub[2]
		}
		return match
	})
}

// resolveWorkspaceRoot makes a relative workspace root absolute, anchored at
// the config file's directory so the confinement boundary does not move with
// the process working directory.
func resolveWorkspaceRoot(cfg *Config, configPath string) {
	if cfg.WorkspaceRoot == "" || filepath.IsAbs(cfg.WorkspaceRoot) {
		return
	}
	base := filepath.Dir(configPath)
	cfg.WorkspaceRoot = filepath.Join(base, cfg.WorkspaceRoot)
}

// checkFilePermissions warns if the config file is group- or world-readable.
func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	mode := info.Mode().Perm()
	if mode&0o044 != 0 {
		slog.Warn("config file has open permissions, consider restricting",
			"path", path,
			"current", fmt.Sprintf("%04o", mode),
			"recommended", "0600",
		)
	}
}
