package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay collapses the burst of filesystem events one editor save
// produces (write, chmod, rename for atomic saves) into a single reload.
const reloadDelay = 200 * time.Millisecond

// Watch monitors path and calls onChange with the newly loaded Config each
// time the file content actually changes. Touches that leave the content
// byte-identical are ignored. It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML or a validation error), the error is
// logged and the previous config remains active; Watch does not call
// onChange.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	// Baseline for the content comparison. A read failure here just means
	// the first event always reloads.
	applied, _ := os.ReadFile(path)

	slog.Info("config: watching for changes", "path", path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Write covers in-place saves; Create and Rename cover editors
			// that replace the file atomically.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(reloadDelay)

		case <-pending:
			pending = nil

			// An atomic save may have replaced the inode; re-arm the watch
			// before reading so no follow-up edit is missed.
			_ = watcher.Add(path)

			raw, err := os.ReadFile(path)
			if err != nil {
				slog.Error("config: reload read failed, keeping previous config",
					"path", path, "err", err)
				continue
			}
			if bytes.Equal(raw, applied) {
				slog.Debug("config: file touched but unchanged", "path", path)
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}

			applied = raw
			slog.Info("config: reloaded", "path", path)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
