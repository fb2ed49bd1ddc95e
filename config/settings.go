// Copyright (c) 2025 BVK Chaitanya

// Package config collects the notification, channel, retry and logging
// settings from a config file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bvk/tradenotify/logsink"
	"github.com/bvk/tradenotify/notify"
	"github.com/bvk/tradenotify/pushplus"
	"github.com/bvk/tradenotify/retry"
	"github.com/bvk/tradenotify/telegram"
)

// EnvFileName is the env file name loaded into the environment at startup.
const EnvFileName = ".tradenotify.env"

type PushPlus struct {
	pushplus.Keys

	URL string `json:"url,omitempty"`

	// Timeout is a duration string, e.g., "10s".
	Timeout string `json:"timeout,omitempty"`
}

type Retry struct {
	MaxAttempts int     `json:"max_attempts,omitempty"`
	BaseDelay   string  `json:"base_delay,omitempty"`
	MaxDelay    string  `json:"max_delay,omitempty"`
	Multiplier  float64 `json:"multiplier,omitempty"`
}

type Log struct {
	Dir string `json:"dir,omitempty"`

	// BackupDays and SingleFile are pointers to tell apart the unset values
	// from zero and false.
	BackupDays *int  `json:"backup_days,omitempty"`
	SingleFile *bool `json:"single_file,omitempty"`

	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty"`

	PurgeSchedule string `json:"purge_schedule,omitempty"`
}

type Settings struct {
	// Platform is the notification channel selector: "1" or telegram for the
	// chat-bot and "2" or pushplus for the push service.
	Platform string `json:"platform,omitempty"`

	Telegram telegram.Secrets `json:"telegram"`

	PushPlus PushPlus `json:"pushplus"`

	// Proxy is an optional http proxy for the chat-bot requests.
	Proxy string `json:"proxy,omitempty"`

	Retry Retry `json:"retry"`

	Log Log `json:"log"`

	// Listen is the daemon's http listen address.
	Listen string `json:"listen,omitempty"`
}

// DefaultListen is the default listen address for the daemon.
const DefaultListen = "127.0.0.1:10088"

func Default() *Settings {
	return &Settings{
		Listen: DefaultListen,
	}
}

func parseDuration(path, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0: %w", path, os.ErrInvalid)
	}
	return d, nil
}

// NotifyPlatform returns the selected notification platform. Unrecognized
// selectors are returned as is; dispatchers skip deliveries for them.
func (s *Settings) NotifyPlatform() notify.Platform {
	p, _ := notify.ParsePlatform(s.Platform)
	return p
}

func (s *Settings) RetryPolicy() (*retry.Policy, error) {
	p := retry.DefaultPolicy()
	if s.Retry.MaxAttempts != 0 {
		p.MaxAttempts = s.Retry.MaxAttempts
	}
	if s.Retry.Multiplier != 0 {
		p.Multiplier = s.Retry.Multiplier
	}
	var err error
	if p.BaseDelay, err = parseDuration("retry.base_delay", s.Retry.BaseDelay, p.BaseDelay); err != nil {
		return nil, err
	}
	if p.MaxDelay, err = parseDuration("retry.max_delay", s.Retry.MaxDelay, p.MaxDelay); err != nil {
		return nil, err
	}
	if err := p.Check(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Settings) TelegramOptions() *telegram.Options {
	return &telegram.Options{ProxyURL: s.Proxy}
}

func (s *Settings) PushPlusOptions() (*pushplus.Options, error) {
	timeout, err := parseDuration("pushplus.timeout", s.PushPlus.Timeout, 0)
	if err != nil {
		return nil, err
	}
	return &pushplus.Options{URL: s.PushPlus.URL, Timeout: timeout}, nil
}

func (s *Settings) LogLevel() (slog.Level, error) {
	var level slog.Level
	if len(s.Log.Level) == 0 {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s.Log.Level, os.ErrInvalid)
	}
	return level, nil
}

// LogConfig returns the log sink configuration. Log directory defaults to the
// current directory, in single-file mode with two backup days.
func (s *Settings) LogConfig() (*logsink.Config, error) {
	cfg := logsink.DefaultConfig()
	if len(s.Log.Dir) != 0 {
		cfg.Dir = s.Log.Dir
	}
	if s.Log.BackupDays != nil {
		cfg.BackupDays = *s.Log.BackupDays
	}
	if s.Log.SingleFile != nil {
		cfg.SingleFile = *s.Log.SingleFile
	}
	level, err := s.LogLevel()
	if err != nil {
		return nil, err
	}
	cfg.Level = level
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Check validates the settings. Missing channel credentials are not errors;
// deliveries through an unconfigured channel are skipped.
func (s *Settings) Check() error {
	if _, err := s.RetryPolicy(); err != nil {
		return err
	}
	if err := s.TelegramOptions().Check(); err != nil {
		return err
	}
	popts, err := s.PushPlusOptions()
	if err != nil {
		return err
	}
	if len(popts.URL) != 0 {
		if err := popts.Check(); err != nil {
			return err
		}
	}
	if _, err := s.LogConfig(); err != nil {
		return err
	}
	return nil
}

// NewDispatcher creates a notification dispatcher with the channels that have
// their credentials configured.
func (s *Settings) NewDispatcher() (*notify.Dispatcher, error) {
	policy, err := s.RetryPolicy()
	if err != nil {
		return nil, err
	}
	opts := &notify.Options{
		Platform: s.NotifyPlatform(),
		Retry:    policy,
	}

	if s.Telegram.Configured() {
		client, err := telegram.New(&s.Telegram, s.TelegramOptions())
		if err != nil {
			return nil, fmt.Errorf("could not create telegram client: %w", err)
		}
		opts.Telegram = client
	}

	if s.PushPlus.Configured() {
		popts, err := s.PushPlusOptions()
		if err != nil {
			return nil, err
		}
		client, err := pushplus.New(&s.PushPlus.Keys, popts)
		if err != nil {
			return nil, fmt.Errorf("could not create pushplus client: %w", err)
		}
		opts.PushPlus = client
	}

	return notify.New(opts)
}
