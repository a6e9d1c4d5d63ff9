// Package config – watcher.go reloads the configuration when the file
// changes on disk, so rule edits take effect without restarting the gateway.
package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of write events editors emit when
// saving a file.
const reloadDebounce = 250 * time.Millisecond

// Watcher reloads the config file on change and hands each successfully
// parsed result to the registered callback. Parse failures keep the previous
// configuration and log the error.
type Watcher struct {
	path     string
	onChange func(*Config)
	fsw      *fsnotify.Watcher
	log      *slog.Logger
	done     chan struct{}
}

// NewWatcher starts watching the config file's directory. Watching the
// directory instead of the file survives the rename-and-replace dance most
// editors and atomic writers do.
func NewWatcher(path string, logger *slog.Logger, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching config directory: %w", err)
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		fsw:      fsw,
		log:      logger.With("component", "config-watcher"),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, w.reload)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error", "error", err)
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Error("config reload failed, keeping previous configuration",
			"path", w.path, "error", err)
		return
	}
	w.log.Info("configuration reloaded", "path", w.path)
	w.onChange(cfg)
}
