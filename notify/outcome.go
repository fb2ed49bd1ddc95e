// Copyright (c) 2025 BVK Chaitanya

package notify

import (
	"errors"
	"time"
)

var (
	// ErrChannelUnconfigured is reported when the selected channel has no
	// credentials. Delivery is skipped.
	ErrChannelUnconfigured = errors.New("notification channel is not configured")

	// ErrUnknownChannel is reported when the platform selector doesn't match
	// any channel. Delivery is skipped.
	ErrUnknownChannel = errors.New("unknown notification channel")
)

// Outcome is the result of one dispatch. Outcomes are only logged and
// published to the subscribers; they are never returned to the senders.
type Outcome struct {
	ID       string
	Platform Platform
	Title    string

	// Attempts is the number of delivery attempts made, which is zero for
	// skipped dispatches.
	Attempts int

	// Err is nil when the notification is delivered.
	Err error

	At time.Time
}

func (v *Outcome) Success() bool {
	return v.Err == nil
}

// Skipped returns true if no delivery was attempted.
func (v *Outcome) Skipped() bool {
	return errors.Is(v.Err, ErrChannelUnconfigured) || errors.Is(v.Err, ErrUnknownChannel)
}
