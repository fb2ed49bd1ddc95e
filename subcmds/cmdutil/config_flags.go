// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/bvk/tradenotify/config"
	"github.com/bvk/tradenotify/envfile"
	"github.com/bvk/tradenotify/logsink"
)

type ConfigFlags struct {
	ConfigPath string

	NoEnvFile bool

	LogLevel string
}

func (f *ConfigFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.ConfigPath, "config", "", "path to a json or yaml settings file")
	fset.BoolVar(&f.NoEnvFile, "no-env-file", false, "when true, "+config.EnvFileName+" file is not loaded")
	fset.StringVar(&f.LogLevel, "log-level", "", "overrides the log level from the settings")
}

// Environment lists the environment variables used by the settings.
func (f *ConfigFlags) Environment() [][2]string {
	return config.Environment()
}

// Settings loads the env file, if any, and returns the settings from the
// config file and the environment.
func (f *ConfigFlags) Settings() (*config.Settings, error) {
	if !f.NoEnvFile {
		fpath, err := envfile.UpdateEnv(config.EnvFileName, envfile.SearchCurrentDir(true), envfile.SearchHomeDir())
		if err != nil {
			return nil, fmt.Errorf("could not load env file: %w", err)
		}
		if len(fpath) != 0 {
			slog.Debug("loaded environment from env file", "path", fpath)
		}
	}
	s, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if len(f.LogLevel) != 0 {
		s.Log.Level = f.LogLevel
		if _, err := s.LogLevel(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetupLogging installs a log sink for the settings as the default logger.
func SetupLogging(s *config.Settings, modify func(*logsink.Config)) (*logsink.Sink, error) {
	cfg, err := s.LogConfig()
	if err != nil {
		return nil, err
	}
	if modify != nil {
		modify(cfg)
	}
	sink, err := logsink.New(cfg)
	if err != nil {
		return nil, err
	}
	sink.Reconfigure()
	slog.SetDefault(slog.New(sink.Handler()))
	return sink, nil
}
