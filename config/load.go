// Copyright (c) 2025 BVK Chaitanya

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bvk/tradenotify/notify"
	yaml "go.yaml.in/yaml/v3"
)

// Environment variable names for the settings.
const (
	EnvPlatform          = "NOTIFICATION_PLATFORM"
	EnvTelegramToken     = "TELEGRAM_TOKEN"
	EnvTelegramChannelID = "TELEGRAM_CHANNEL_ID"
	EnvPushPlusToken     = "PUSHPLUS_TOKEN"
	EnvPushPlusURL       = "PUSHPLUS_URL"
	EnvPushPlusTimeout   = "PUSHPLUS_TIMEOUT"
	EnvHTTPProxy         = "HTTP_PROXY"
	EnvLogDir            = "LOG_DIR"
	EnvLogBackupDays     = "LOG_BACKUP_DAYS"
	EnvLogSingleFile     = "LOG_SINGLE_FILE"
	EnvLogLevel          = "LOG_LEVEL"
	EnvRetryMaxAttempts  = "RETRY_MAX_ATTEMPTS"
	EnvRetryBaseDelay    = "RETRY_BASE_DELAY"
	EnvRetryMaxDelay     = "RETRY_MAX_DELAY"
	EnvListen            = "TRADENOTIFY_LISTEN"
)

// Environment returns the environment variable names with their one-line
// descriptions.
func Environment() [][2]string {
	return [][2]string{
		{EnvPlatform, "notification channel: 1 for telegram, 2 for pushplus"},
		{EnvTelegramToken, "telegram bot token"},
		{EnvTelegramChannelID, "telegram channel or chat id"},
		{EnvPushPlusToken, "pushplus user token"},
		{EnvPushPlusURL, "pushplus api endpoint"},
		{EnvPushPlusTimeout, "pushplus request timeout, e.g., 10s"},
		{EnvHTTPProxy, "proxy for the telegram api requests"},
		{EnvLogDir, "log directory"},
		{EnvLogBackupDays, "number of days to keep the log files"},
		{EnvLogSingleFile, "when true, only the main log file is purged"},
		{EnvLogLevel, "log level: debug, info, warn or error"},
		{EnvRetryMaxAttempts, "max telegram delivery attempts"},
		{EnvRetryBaseDelay, "initial retry delay"},
		{EnvRetryMaxDelay, "max retry delay"},
		{EnvListen, "daemon listen address"},
	}
}

// Load reads the settings from the config file, if non-empty, and applies the
// environment variable overrides.
func Load(path string) (*Settings, error) {
	s := Default()
	if len(path) != 0 {
		v, err := FromFile(path)
		if err != nil {
			return nil, err
		}
		s = v
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	if _, err := notify.ParsePlatform(s.Platform); err != nil {
		slog.Warn("unrecognized notification platform; notifications will be skipped", "platform", s.Platform)
	}
	return s, nil
}

// FromEnv returns the default settings updated with the environment.
func FromEnv() (*Settings, error) {
	return Load("")
}

// FromFile reads settings from a JSON or YAML (.yaml or .yml extension) file.
// Unknown fields are rejected.
func FromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	jb, err := coerceToJSON(path, data)
	if err != nil {
		return nil, fmt.Errorf("could not parse config file %q: %w", path, err)
	}

	s := Default()
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("could not decode config file %q: %w", path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config file %q: trailing data: %w", path, os.ErrInvalid)
		}
		return nil, err
	}
	return s, nil
}

// coerceToJSON converts YAML config to JSON bytes so that both formats go
// through the strict JSON decoder.
func coerceToJSON(path string, data []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if v == nil {
		return []byte("{}"), nil
	}
	j, err := json.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, nil
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}

// ApplyEnv overrides the settings with the non-empty environment variables
// returned by the lookup function.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && len(v) != 0
	}

	strs := map[string]*string{
		EnvPlatform:          &s.Platform,
		EnvTelegramToken:     &s.Telegram.BotToken,
		EnvTelegramChannelID: &s.Telegram.ChannelID,
		EnvPushPlusToken:     &s.PushPlus.Token,
		EnvPushPlusURL:       &s.PushPlus.URL,
		EnvPushPlusTimeout:   &s.PushPlus.Timeout,
		EnvHTTPProxy:         &s.Proxy,
		EnvLogDir:            &s.Log.Dir,
		EnvLogLevel:          &s.Log.Level,
		EnvRetryBaseDelay:    &s.Retry.BaseDelay,
		EnvRetryMaxDelay:     &s.Retry.MaxDelay,
		EnvListen:            &s.Listen,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	// Plain numbers are accepted as seconds for the push timeout.
	if _, err := strconv.ParseFloat(s.PushPlus.Timeout, 64); err == nil {
		s.PushPlus.Timeout += "s"
	}

	if v, ok := get(EnvRetryMaxAttempts); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", EnvRetryMaxAttempts, v, os.ErrInvalid)
		}
		s.Retry.MaxAttempts = n
	}
	if v, ok := get(EnvLogBackupDays); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", EnvLogBackupDays, v, os.ErrInvalid)
		}
		s.Log.BackupDays = &n
	}
	if v, ok := get(EnvLogSingleFile); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q: %w", EnvLogSingleFile, v, os.ErrInvalid)
		}
		s.Log.SingleFile = &b
	}
	return nil
}
