// Copyright (c) 2025 BVK Chaitanya

// Package monitor wraps operations to report their elapsed time and the
// change in used system memory at debug log level.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

// Sample holds resource usage measured around one operation.
type Sample struct {
	Name     string
	Elapsed  time.Duration
	MemDelta int64
}

// MemDeltaMB returns the memory delta in mebibytes.
func (s *Sample) MemDeltaMB() float64 {
	return float64(s.MemDelta) / 1024 / 1024
}

// usedMemory is replaced by tests.
var usedMemory = func(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Used, nil
}

// Do runs op and logs its resource usage. Memory sampling errors are ignored
// and reported as a zero delta.
func Do[T any](ctx context.Context, name string, op func(context.Context) (T, error)) (T, error) {
	v, _, err := Measure(ctx, name, op)
	return v, err
}

// Measure is like Do, but also returns the measured sample.
func Measure[T any](ctx context.Context, name string, op func(context.Context) (T, error)) (_ T, _ *Sample, status error) {
	start := time.Now()
	before, berr := usedMemory(ctx)
	slog.DebugContext(ctx, "starting operation", "name", name)

	s := &Sample{Name: name}
	defer func() {
		s.Elapsed = time.Since(start)
		if after, aerr := usedMemory(ctx); berr == nil && aerr == nil {
			s.MemDelta = int64(after) - int64(before)
		}
		slog.DebugContext(ctx, "operation completed", "name", name, "elapsed", s.Elapsed, "mem-delta-mb", s.MemDeltaMB(), "err", status)
	}()

	v, err := op(ctx)
	return v, s, err
}
