// Copyright (c) 2025 BVK Chaitanya

package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// backupSuffixLayout is the time layout for the rotated log file suffix.
const backupSuffixLayout = "2006-01-02"

// rotatingFile is a log file that is rotated at local midnight. The file is
// created lazily on the first write and is reopened if it is closed by the
// purge.
type rotatingFile struct {
	mu sync.Mutex

	dir, name string

	mode os.FileMode

	backups int

	now func() time.Time

	fp *os.File

	rolloverAt time.Time
}

func newRotatingFile(cfg *Config) *rotatingFile {
	return &rotatingFile{
		dir:     cfg.Dir,
		name:    cfg.FileName,
		mode:    cfg.FileMode,
		backups: cfg.BackupDays,
		now:     time.Now,
	}
}

func (f *rotatingFile) path() string {
	return filepath.Join(f.dir, f.name)
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

func (f *rotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if f.fp == nil {
		if err := f.open(now); err != nil {
			return 0, err
		}
	}
	if !now.Before(f.rolloverAt) {
		if err := f.rotate(now); err != nil {
			return 0, err
		}
	}
	return f.fp.Write(p)
}

func (f *rotatingFile) open(now time.Time) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("could not create log directory: %w", err)
	}
	fp, err := os.OpenFile(f.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, f.mode)
	if err != nil {
		return fmt.Errorf("could not open/create log file: %w", err)
	}
	finfo, err := fp.Stat()
	if err != nil {
		fp.Close()
		return fmt.Errorf("could not stat log file: %w", err)
	}

	// Existing log files are rotated based on their last modification time.
	base := now
	if finfo.Size() > 0 {
		base = finfo.ModTime().In(now.Location())
	}
	f.fp, f.rolloverAt = fp, nextMidnight(base)
	return nil
}

func (f *rotatingFile) rotate(now time.Time) error {
	f.fp.Close()
	f.fp = nil

	backup := fmt.Sprintf("%s.%s", f.path(), f.rolloverAt.AddDate(0, 0, -1).Format(backupSuffixLayout))
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove old backup file: %w", err)
	}
	if err := os.Rename(f.path(), backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not rename log file to backup: %w", err)
	}
	if err := f.removeExtraBackups(); err != nil {
		return err
	}
	return f.open(now)
}

// backupNames returns the rotated copies of the log file in the ascending
// order of their dates.
func (f *rotatingFile) backupNames() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("could not read log directory: %w", err)
	}
	var names []string
	prefix := f.name + "."
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, err := time.Parse(backupSuffixLayout, strings.TrimPrefix(name, prefix)); err != nil {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// removeExtraBackups keeps the latest backups count of rotated files. Zero
// backups count keeps all rotated files.
func (f *rotatingFile) removeExtraBackups() error {
	if f.backups <= 0 {
		return nil
	}
	names, err := f.backupNames()
	if err != nil {
		return err
	}
	if len(names) <= f.backups {
		return nil
	}
	for _, name := range names[:len(names)-f.backups] {
		if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("could not remove extra backup file: %w", err)
		}
	}
	return nil
}

// Close closes the underlying file, if it is open. Next write, if any, will
// reopen the file.
func (f *rotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fp == nil {
		return nil
	}
	err := f.fp.Close()
	f.fp = nil
	return err
}

// remove closes and removes the log file while holding the lock, so that a
// concurrent write can only recreate the file after it is removed.
func (f *rotatingFile) remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fp != nil {
		if err := f.fp.Close(); err != nil {
			return fmt.Errorf("could not close active log file: %w", err)
		}
		f.fp = nil
	}
	return removeFunc(f.path())
}
