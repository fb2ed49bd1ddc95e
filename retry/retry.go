// Copyright (c) 2025 BVK Chaitanya

// Package retry re-executes failing remote calls with a bounded number of
// attempts and truncated exponential backoff.
//
// Every failure is retried; the package doesn't try to classify errors as
// transient or permanent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bvk/tradenotify/ctxutil"
)

// ErrRemoteCallFailed matches every error returned by Do after the retries
// are exhausted.
var ErrRemoteCallFailed = errors.New("remote call failed")

// RemoteCallFailedError reports the last failure of an operation after all
// attempts have failed.
type RemoteCallFailedError struct {
	Name     string
	Attempts int
	Err      error
}

func (e *RemoteCallFailedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Name, e.Attempts, e.Err)
}

func (e *RemoteCallFailedError) Unwrap() error {
	return e.Err
}

func (e *RemoteCallFailedError) Is(target error) bool {
	return target == ErrRemoteCallFailed
}

// sleepFunc is replaced by tests to observe the backoff delays.
var sleepFunc = ctxutil.Sleep

// Do runs op till it succeeds or till policy.MaxAttempts attempts have
// failed. Each failure is logged with its attempt number. A nil policy uses
// the DefaultPolicy; a non-nil policy is used as given, so zero delays retry
// immediately.
//
// Returns the op result on success. Otherwise, returns a
// *RemoteCallFailedError with the last op error. Context cancellation during
// the backoff wait ends the retries early.
func Do[T any](ctx context.Context, policy *Policy, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T

	p := policy
	if p == nil {
		p = DefaultPolicy()
	}
	if err := p.Check(); err != nil {
		return zero, fmt.Errorf("invalid retry policy: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "remote call succeeded after retries", "name", name, "attempt", attempt)
			}
			return v, nil
		}
		lastErr = err
		slog.ErrorContext(ctx, "remote call failed", "name", name, "attempt", attempt, "max-attempts", p.MaxAttempts, "err", err)

		if attempt == p.MaxAttempts {
			return zero, &RemoteCallFailedError{Name: name, Attempts: attempt, Err: lastErr}
		}

		delay := p.Delay(attempt)
		if err := sleepFunc(ctx, delay); err != nil {
			slog.WarnContext(ctx, "retry wait is interrupted", "name", name, "attempt", attempt, "delay", delay, "err", err)
			return zero, &RemoteCallFailedError{Name: name, Attempts: attempt, Err: errors.Join(lastErr, err)}
		}
	}
	return zero, &RemoteCallFailedError{Name: name, Attempts: p.MaxAttempts, Err: lastErr}
}

// Wrap returns a function that runs op through Do with the given policy.
func Wrap[T any](policy *Policy, name string, op func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Do(ctx, policy, name, op)
	}
}
