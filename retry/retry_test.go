// Copyright (c) 2025 BVK Chaitanya

package retry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

// fakeSleep records the requested delays without sleeping.
func fakeSleep(t *testing.T) *[]time.Duration {
	var delays []time.Duration
	old := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return context.Cause(ctx)
	}
	t.Cleanup(func() { sleepFunc = old })
	return &delays
}

func TestPolicyDelay(t *testing.T) {
	p := &Policy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{100, 10 * time.Second},
		{5000, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestPolicyCheck(t *testing.T) {
	bad := []*Policy{
		{MaxAttempts: 0, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 2},
		{MaxAttempts: 1, BaseDelay: 2 * time.Second, MaxDelay: time.Second, Multiplier: 2},
		{MaxAttempts: 1, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 0.5},
		{MaxAttempts: 1, BaseDelay: -time.Second, MaxDelay: time.Second, Multiplier: 2},
	}
	for i, p := range bad {
		if err := p.Check(); !errors.Is(err, os.ErrInvalid) {
			t.Errorf("policy %d: want os.ErrInvalid, got %v", i, err)
		}
	}
	if err := DefaultPolicy().Check(); err != nil {
		t.Fatal(err)
	}
}

func TestPermanentFailure(t *testing.T) {
	delays := fakeSleep(t)
	ctx := context.Background()

	for n := 1; n <= 6; n++ {
		*delays = nil
		p := &Policy{MaxAttempts: n, BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}

		calls := 0
		failure := fmt.Errorf("failure %d", n)
		_, err := Do(ctx, p, t.Name(), func(context.Context) (int, error) {
			calls++
			return 0, failure
		})
		if calls != n {
			t.Fatalf("max-attempts %d: want %d calls, got %d", n, n, calls)
		}
		if !errors.Is(err, ErrRemoteCallFailed) || !errors.Is(err, failure) {
			t.Fatalf("max-attempts %d: want remote call failure wrapping the op error, got %v", n, err)
		}
		var rerr *RemoteCallFailedError
		if !errors.As(err, &rerr) || rerr.Attempts != n {
			t.Fatalf("max-attempts %d: want attempts %d in the error, got %v", n, n, err)
		}

		if len(*delays) != n-1 {
			t.Fatalf("max-attempts %d: want %d waits, got %v", n, n-1, *delays)
		}
		for i := 1; i < len(*delays); i++ {
			if (*delays)[i] < (*delays)[i-1] {
				t.Fatalf("delays must be non-decreasing: %v", *delays)
			}
		}
		for _, d := range *delays {
			if d > p.MaxDelay {
				t.Fatalf("delay %v exceeds max delay %v", d, p.MaxDelay)
			}
		}
	}
}

func TestEventualSuccess(t *testing.T) {
	delays := fakeSleep(t)
	ctx := context.Background()
	p := &Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}

	for k := 1; k <= p.MaxAttempts; k++ {
		*delays = nil
		calls := 0
		v, err := Do(ctx, p, t.Name(), func(context.Context) (string, error) {
			calls++
			if calls < k {
				return "", os.ErrDeadlineExceeded
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("success on attempt %d: unexpected error %v", k, err)
		}
		if v != "ok" {
			t.Fatalf("want ok, got %q", v)
		}
		if calls != k {
			t.Fatalf("want %d calls, got %d", k, calls)
		}
		if len(*delays) != k-1 {
			t.Fatalf("want %d waits, got %v", k-1, *delays)
		}
	}
}

func TestSingleAttempt(t *testing.T) {
	delays := fakeSleep(t)
	p := &Policy{MaxAttempts: 1, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 2}

	calls := 0
	_, err := Do(context.Background(), p, t.Name(), func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, os.ErrInvalid
	})
	if calls != 1 || len(*delays) != 0 {
		t.Fatalf("want one call without waits, got %d calls and %v", calls, *delays)
	}
	if !errors.Is(err, ErrRemoteCallFailed) {
		t.Fatalf("want remote call failure, got %v", err)
	}
}

func TestCanceledWait(t *testing.T) {
	fakeSleep(t)
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(os.ErrClosed)

	calls := 0
	p := &Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 2}
	_, err := Do(ctx, p, t.Name(), func(context.Context) (int, error) {
		calls++
		return 0, os.ErrInvalid
	})
	if calls != 1 {
		t.Fatalf("want retries to stop after cancellation, got %d calls", calls)
	}
	if !errors.Is(err, ErrRemoteCallFailed) || !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want remote call failure with the cancel cause, got %v", err)
	}
}

func TestWrap(t *testing.T) {
	fakeSleep(t)
	calls := 0
	op := Wrap(&Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}, t.Name(),
		func(context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, os.ErrInvalid
			}
			return 42, nil
		})
	v, err := op(context.Background())
	if err != nil || v != 42 {
		t.Fatalf("want 42, got %d/%v", v, err)
	}
}

func TestZeroDelayPolicy(t *testing.T) {
	delays := fakeSleep(t)
	p := &Policy{MaxAttempts: 3, BaseDelay: 0, MaxDelay: 0, Multiplier: 1}
	if err := p.Check(); err != nil {
		t.Fatal(err)
	}

	calls := 0
	_, err := Do(context.Background(), p, t.Name(), func(context.Context) (int, error) {
		calls++
		return 0, os.ErrDeadlineExceeded
	})
	if !errors.Is(err, ErrRemoteCallFailed) || calls != 3 {
		t.Fatalf("want 3 failed calls, got %d calls and %v", calls, err)
	}
	want := []time.Duration{0, 0}
	if len(*delays) != len(want) || (*delays)[0] != 0 || (*delays)[1] != 0 {
		t.Fatalf("want delays %v, got %v", want, *delays)
	}
}

func TestInvalidPolicyIsNotDefaulted(t *testing.T) {
	fakeSleep(t)
	calls := 0
	_, err := Do(context.Background(), &Policy{MaxAttempts: 0, Multiplier: 1}, t.Name(), func(context.Context) (int, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, os.ErrInvalid) || calls != 0 {
		t.Fatalf("want os.ErrInvalid without calls, got %d calls and %v", calls, err)
	}
}
