// Copyright (c) 2025 BVK Chaitanya

// Package logsink implements the process log sink with a midnight-rotating
// log file, a console output, and the retention purge of expired log files.
package logsink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Sink struct {
	mu sync.RWMutex

	cfg *Config

	level slog.LevelVar

	file *rotatingFile

	handlers []slog.Handler
}

// New creates a log sink with the given configuration. Handlers are not
// installed till the first Reconfigure.
func New(cfg *Config) (*Sink, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.clone()
	cfg.setDefaults()
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	s := &Sink{cfg: cfg}
	s.level.Set(cfg.Level)
	return s, nil
}

// Reconfigure replaces the current handlers, if any, with exactly one file
// handler and one console handler. Previous log file is closed. It is safe to
// call Reconfigure multiple times.
func (s *Sink) Reconfigure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		s.file.Close()
	}
	s.file = newRotatingFile(s.cfg)
	s.handlers = []slog.Handler{
		newFormatHandler(s.file, true /* long */, &s.level),
		newFormatHandler(s.cfg.Console, false /* long */, &s.level),
	}
}

// NumHandlers returns the number of installed handlers.
func (s *Sink) NumHandlers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// Config returns a copy of the sink configuration.
func (s *Sink) Config() *Config {
	return s.cfg.clone()
}

// SetLevel updates the minimum log level.
func (s *Sink) SetLevel(level slog.Level) {
	s.level.Set(level)
}

// Close closes the log file. Log messages after Close reopen the log file.
func (s *Sink) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// Handler returns a slog handler that forwards records to the currently
// installed handlers.
func (s *Sink) Handler() slog.Handler {
	return &sinkHandler{sink: s}
}

func (s *Sink) current() []slog.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers
}

type sinkHandler struct {
	sink *Sink

	goas []groupOrAttrs
}

func (h *sinkHandler) withGroupOrAttrs(goa groupOrAttrs) *sinkHandler {
	h2 := *h
	h2.goas = make([]groupOrAttrs, len(h.goas)+1)
	copy(h2.goas, h.goas)
	h2.goas[len(h2.goas)-1] = goa
	return &h2
}

func (h *sinkHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.withGroupOrAttrs(groupOrAttrs{group: name})
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.withGroupOrAttrs(groupOrAttrs{attrs: attrs})
}

func (h *sinkHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.sink.level.Level()
}

func (h *sinkHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.sink.current() {
		for _, goa := range h.goas {
			if goa.group != "" {
				handler = handler.WithGroup(goa.group)
			} else {
				handler = handler.WithAttrs(goa.attrs)
			}
		}
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PurgeExpired removes the files in the log directory that are not modified
// in the last BackupDays days. In single-file mode, only the canonical log file
// is considered. Returns the paths of the removed files. Failures are logged
// and skipped.
func (s *Sink) PurgeExpired(now time.Time) []string {
	cfg := s.cfg

	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("could not read log directory for purge (ignored)", "dir", cfg.Dir, "err", err)
		}
		return nil
	}

	cutoff := now.Add(-time.Duration(cfg.BackupDays) * 24 * time.Hour)

	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || slices.Contains(cfg.Keep, name) {
			continue
		}
		if cfg.SingleFile && name != cfg.FileName {
			continue
		}
		finfo, err := entry.Info()
		if err != nil {
			slog.Warn("could not stat log file for purge (ignored)", "name", name, "err", err)
			continue
		}
		if !finfo.ModTime().Before(cutoff) {
			continue
		}

		fpath := filepath.Join(cfg.Dir, name)
		remove := removeFunc
		if name == cfg.FileName {
			remove = s.removeActive
		}
		if err := remove(fpath); err != nil {
			slog.Warn("could not remove expired log file (ignored)", "path", fpath, "err", err)
			continue
		}
		removed = append(removed, fpath)
	}

	if len(removed) > 0 {
		slog.Info("removed expired log files", "dir", cfg.Dir, "count", len(removed))
	}
	return removed
}

// removeFunc is replaced by tests to inject file removal failures.
var removeFunc = os.Remove

// removeActive removes the active log file. Next log message will create a
// new file.
func (s *Sink) removeActive(fpath string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file != nil && s.file.path() == fpath {
		return s.file.remove()
	}
	return removeFunc(fpath)
}

// releaseActive closes the active log file after it is moved away. Next log
// message will create a new file.
func (s *Sink) releaseActive() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			slog.Warn("could not close active log file (ignored)", "err", err)
		}
	}
}

// StartPurger runs PurgeExpired periodically on the given cron schedule in
// the local timezone. Returned function stops the purger and waits for a
// running purge, if any.
func (s *Sink) StartPurger(schedule string) (stop func(), err error) {
	if len(schedule) == 0 {
		schedule = DefaultPurgeSchedule
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, errors.Join(err, os.ErrInvalid))
	}

	c := cron.New(cron.WithParser(parser), cron.WithLocation(time.Local))
	if _, err := c.AddFunc(schedule, func() { s.PurgeExpired(time.Now()) }); err != nil {
		return nil, fmt.Errorf("could not schedule log purge: %w", err)
	}
	c.Start()

	stop = func() {
		<-c.Stop().Done()
	}
	return stop, nil
}
