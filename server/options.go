// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"fmt"
	"os"
	"time"
)

type Options struct {
	// PurgeSchedule is the cron schedule for the expired log files purge.
	// Purge is disabled when the server has no log sink.
	PurgeSchedule string

	// ShutdownTimeout is the maximum time to wait for the background
	// deliveries to complete at shutdown. Remaining deliveries are canceled.
	ShutdownTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.ShutdownTimeout == 0 {
		v.ShutdownTimeout = 30 * time.Second
	}
}

func (v *Options) Check() error {
	if v.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
