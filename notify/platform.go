// Copyright (c) 2025 BVK Chaitanya

package notify

import (
	"fmt"
	"os"
	"strings"
)

// Platform selects the channel used for notifications.
type Platform string

const (
	PlatformNone     Platform = "0"
	PlatformTelegram Platform = "1"
	PlatformPushPlus Platform = "2"
)

// ParsePlatform accepts the numeric selector values as well as the channel
// names. Empty string selects PlatformNone.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "none":
		return PlatformNone, nil
	case "1", "telegram":
		return PlatformTelegram, nil
	case "2", "pushplus":
		return PlatformPushPlus, nil
	}
	return Platform(s), fmt.Errorf("unrecognized notification platform %q: %w", s, os.ErrInvalid)
}

func (p Platform) String() string {
	switch p {
	case PlatformNone:
		return "none"
	case PlatformTelegram:
		return "telegram"
	case PlatformPushPlus:
		return "pushplus"
	}
	return fmt.Sprintf("unknown(%s)", string(p))
}
