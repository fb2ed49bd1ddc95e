// Copyright (c) 2023 BVK Chaitanya

package pushplus

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

type Keys struct {
	Token string `json:"token" yaml:"token"`
}

// Configured returns true if the push token is set.
func (k *Keys) Configured() bool {
	return k != nil && len(k.Token) != 0
}

const DefaultURL = "https://www.pushplus.plus/send"

type Options struct {
	// URL is the push service endpoint.
	URL string

	// Timeout is the http client timeout for each push request.
	Timeout time.Duration
}

func (v *Options) setDefaults() {
	if len(v.URL) == 0 {
		v.URL = DefaultURL
	}
	if v.Timeout == 0 {
		v.Timeout = 10 * time.Second
	}
}

func (v *Options) Check() error {
	u, err := url.Parse(v.URL)
	if err != nil {
		return fmt.Errorf("invalid push url %q: %w", v.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("push url %q must use http or https: %w", v.URL, os.ErrInvalid)
	}
	if v.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
