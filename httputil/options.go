// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"fmt"
	"os"
	"time"
)

type Options struct {
	// ServerCheckTimeout holds the http client timeout when checking for the
	// http server initialization.
	ServerCheckTimeout time.Duration

	// ServerCheckRetryInterval holds the amount of time to wait to check for
	// the http server readiness.
	ServerCheckRetryInterval time.Duration

	// ReadHeaderTimeout limits the time to read the request headers.
	ReadHeaderTimeout time.Duration

	// StopTimeout is the max time Stop waits for the in-flight requests
	// before closing the connections.
	StopTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.ServerCheckTimeout == 0 {
		v.ServerCheckTimeout = 10 * time.Second
	}
	if v.ServerCheckRetryInterval == 0 {
		v.ServerCheckRetryInterval = 100 * time.Millisecond
	}
	if v.ReadHeaderTimeout == 0 {
		v.ReadHeaderTimeout = 10 * time.Second
	}
	if v.StopTimeout == 0 {
		v.StopTimeout = 5 * time.Second
	}
}

func (v *Options) Check() error {
	if v.ServerCheckTimeout < 0 || v.ServerCheckRetryInterval < 0 {
		return fmt.Errorf("server check timeouts cannot be negative: %w", os.ErrInvalid)
	}
	if v.ReadHeaderTimeout < 0 || v.StopTimeout < 0 {
		return fmt.Errorf("server timeouts cannot be negative: %w", os.ErrInvalid)
	}
	if v.ServerCheckRetryInterval > v.ServerCheckTimeout {
		return fmt.Errorf("server check retry interval %s is larger than the timeout %s: %w", v.ServerCheckRetryInterval, v.ServerCheckTimeout, os.ErrInvalid)
	}
	return nil
}
