package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watchTimeout = 5 * time.Second

func startTestWatcher(t *testing.T, path string) chan *Config {
	t.Helper()
	got := make(chan *Config, 4)
	w, err := NewWatcher(path, slog.Default(), func(cfg *Config) { got <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return got
}

func awaitReload(t *testing.T, got chan *Config) *Config {
	t.Helper()
	select {
	case cfg := <-got:
		return cfg
	case <-time.After(watchTimeout):
		t.Fatal("config change was not observed")
		return nil
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolgate.yaml")
	if err := os.WriteFile(path, []byte("workspace_root: /srv/before\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := startTestWatcher(t, path)

	if err := os.WriteFile(path, []byte("workspace_root: /srv/after\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := awaitReload(t, got)
	if cfg.WorkspaceRoot != "/srv/after" {
		t.Errorf("reloaded WorkspaceRoot = %q, want %q", cfg.WorkspaceRoot, "/srv/after")
	}
}

func TestWatcher_SurvivesRenameReplace(t *testing.T) {
	// Editors and atomic writers replace the file via rename; the watcher
	// watches the directory so the new inode is still picked up.
	dir := t.TempDir()
	path := filepath.Join(dir, "toolgate.yaml")
	if err := os.WriteFile(path, []byte("workspace_root: /srv/before\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := startTestWatcher(t, path)

	tmp := filepath.Join(dir, "toolgate.yaml.tmp")
	if err := os.WriteFile(tmp, []byte("workspace_root: /srv/replaced\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	cfg := awaitReload(t, got)
	if cfg.WorkspaceRoot != "/srv/replaced" {
		t.Errorf("reloaded WorkspaceRoot = %q, want %q", cfg.WorkspaceRoot, "/srv/replaced")
	}
}

func TestWatcher_ParseFailureKeepsPreviousConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolgate.yaml")
	if err := os.WriteFile(path, []byte("workspace_root: /srv/before\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := startTestWatcher(t, path)

	if err := os.WriteFile(path, []byte("workspace_root: {broken\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Let the broken write's debounced reload run (and fail) before the
	// good one arrives, so the two edits are not coalesced.
	time.Sleep(3 * reloadDebounce)

	if err := os.WriteFile(path, []byte("workspace_root: /srv/recovered\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := awaitReload(t, got)
	if cfg.WorkspaceRoot != "/srv/recovered" {
		t.Errorf("first observed config has WorkspaceRoot = %q, want %q (broken config must not reach the callback)",
			cfg.WorkspaceRoot, "/srv/recovered")
	}
}
