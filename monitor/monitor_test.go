// Copyright (c) 2025 BVK Chaitanya

package monitor

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestMeasure(t *testing.T) {
	old := usedMemory
	defer func() { usedMemory = old }()

	values := []uint64{1 << 20, 3 << 20}
	usedMemory = func(context.Context) (uint64, error) {
		v := values[0]
		values = values[1:]
		return v, nil
	}

	v, s, err := Measure(context.Background(), t.Name(), func(context.Context) (int, error) {
		time.Sleep(time.Millisecond)
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("want 7, got %d/%v", v, err)
	}
	if s.MemDelta != 2<<20 || s.MemDeltaMB() != 2 {
		t.Fatalf("want 2MB memory delta, got %d", s.MemDelta)
	}
	if s.Elapsed < time.Millisecond {
		t.Fatalf("elapsed time %v is too small", s.Elapsed)
	}
}

func TestMeasureSamplingFailure(t *testing.T) {
	old := usedMemory
	defer func() { usedMemory = old }()
	usedMemory = func(context.Context) (uint64, error) {
		return 0, os.ErrPermission
	}

	_, s, err := Measure(context.Background(), t.Name(), func(context.Context) (int, error) {
		return 0, os.ErrInvalid
	})
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want the op error, got %v", err)
	}
	if s.MemDelta != 0 {
		t.Fatalf("want zero memory delta, got %d", s.MemDelta)
	}
}

func TestDo(t *testing.T) {
	v, err := Do(context.Background(), t.Name(), func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("want ok, got %q/%v", v, err)
	}
}
