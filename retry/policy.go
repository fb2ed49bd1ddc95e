// Copyright (c) 2025 BVK Chaitanya

package retry

import (
	"fmt"
	"math"
	"os"
	"time"
)

// Policy holds the truncated exponential backoff parameters for retrying a
// failing remote call.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// BaseDelay is the wait time after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps the wait time between any two attempts.
	MaxDelay time.Duration

	// Multiplier grows the wait time after every failed attempt.
	Multiplier float64
}

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultMultiplier  = 2.0
)

// DefaultPolicy returns the policy used for chat-bot deliveries.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Multiplier:  DefaultMultiplier,
	}
}

func (p *Policy) Check() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts %d must be at least one: %w", p.MaxAttempts, os.ErrInvalid)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base delay %v cannot be negative: %w", p.BaseDelay, os.ErrInvalid)
	}
	if p.BaseDelay > p.MaxDelay {
		return fmt.Errorf("base delay %v cannot exceed max delay %v: %w", p.BaseDelay, p.MaxDelay, os.ErrInvalid)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("backoff multiplier %v must be at least 1: %w", p.Multiplier, os.ErrInvalid)
	}
	return nil
}

// Delay returns the wait time after the given failed attempt, which is
// numbered from one.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if math.IsInf(d, 0) || math.IsNaN(d) || d >= float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}
