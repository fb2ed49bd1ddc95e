// Copyright (c) 2025 BVK Chaitanya

package logsink

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchActive watches the log directory and releases the active log file when
// it is removed or renamed by another process (e.g., logrotate), so that the
// next log message recreates it. Returned function stops the watcher.
func (s *Sink) WatchActive() (stop func(), err error) {
	cfg := s.cfg

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if err := w.Add(cfg.Dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("could not watch log directory %q: %w", cfg.Dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != cfg.FileName {
					continue
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					s.releaseActive()
					slog.Debug("active log file is moved or removed; it will be recreated", "path", ev.Name, "op", ev.Op.String())
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("log directory watch error (ignored)", "dir", cfg.Dir, "err", err)
			}
		}
	}()

	stop = func() {
		w.Close()
		<-done
	}
	return stop, nil
}
