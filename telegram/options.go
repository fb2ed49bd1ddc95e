// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

type Options struct {
	// ProxyURL if non-empty routes the bot api requests through the http
	// proxy.
	ProxyURL string

	// ServerURL overrides the bot api endpoint. Used by the tests.
	ServerURL string

	// Timeout is the http client timeout for each bot api request.
	Timeout time.Duration

	// MessagesPerSecond limits the rate of outgoing messages.
	MessagesPerSecond float64
}

func (v *Options) setDefaults() {
	if v.Timeout == 0 {
		v.Timeout = 30 * time.Second
	}
	if v.MessagesPerSecond == 0 {
		// Telegram allows about one message per second to a single chat.
		v.MessagesPerSecond = 1
	}
}

func (v *Options) Check() error {
	if v.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %w", os.ErrInvalid)
	}
	if v.MessagesPerSecond < 0 {
		return fmt.Errorf("messages per second cannot be negative: %w", os.ErrInvalid)
	}
	if len(v.ProxyURL) != 0 {
		if _, err := url.Parse(v.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy url %q: %w", v.ProxyURL, err)
		}
	}
	return nil
}
