// Copyright (c) 2025 BVK Chaitanya

package logsink

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	DefaultFileName   = "trading_system.log"
	DefaultBackupDays = 2

	// DefaultPurgeSchedule is the cron schedule for the expired log files
	// purge.
	DefaultPurgeSchedule = "@daily"
)

type Config struct {
	// Dir is the log directory. Defaults to the current working directory.
	Dir string

	// FileName is the canonical log file name in the log directory. Rotated
	// copies are named with a date suffix, e.g., trading_system.log.2025-01-02.
	FileName string

	// BackupDays is the number of days log files are retained. It also limits
	// the number of rotated copies of the log file.
	BackupDays int

	// SingleFile restricts the retention purge to the canonical log file.
	SingleFile bool

	// Keep lists the file names in the log directory that are never purged.
	Keep []string

	// Level is the minimum log level. Defaults to INFO.
	Level slog.Level

	// Console receives the console log messages. Defaults to os.Stderr.
	Console io.Writer

	// FileMode is the log file permissions.
	FileMode os.FileMode
}

// DefaultConfig returns the default configuration, which logs into the
// current directory in the single-file mode.
func DefaultConfig() *Config {
	c := &Config{SingleFile: true, BackupDays: DefaultBackupDays}
	c.setDefaults()
	return c
}

func (v *Config) setDefaults() {
	if len(v.Dir) == 0 {
		v.Dir = "."
	}
	if len(v.FileName) == 0 {
		v.FileName = DefaultFileName
	}
	if v.Console == nil {
		v.Console = os.Stderr
	}
	if v.FileMode == 0 {
		v.FileMode = 0644
	}
}

func (v *Config) Check() error {
	if v.BackupDays < 0 {
		return fmt.Errorf("backup days cannot be negative: %w", os.ErrInvalid)
	}
	if len(v.FileName) != 0 && (strings.ContainsRune(v.FileName, filepath.Separator) || v.FileName == "." || v.FileName == "..") {
		return fmt.Errorf("log file name %q must be a plain file name: %w", v.FileName, os.ErrInvalid)
	}
	return nil
}

// Path returns the canonical log file path.
func (v *Config) Path() string {
	return filepath.Join(v.Dir, v.FileName)
}

func (v *Config) clone() *Config {
	c := *v
	c.Keep = slices.Clone(v.Keep)
	return &c
}
