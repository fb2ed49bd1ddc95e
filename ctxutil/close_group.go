// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
)

// CloseGroup runs background goroutines that share a common close context.
// Zero value is ready to use.
type CloseGroup struct {
	closeCtx  context.Context
	causeFunc context.CancelCauseFunc

	wg sync.WaitGroup

	once sync.Once
}

func (cg *CloseGroup) init() {
	cg.closeCtx, cg.causeFunc = context.WithCancelCause(context.Background())
}

// Close cancels the group context and waits for all goroutines to return.
func (cg *CloseGroup) Close() {
	cg.once.Do(cg.init)
	cg.causeFunc(os.ErrClosed)
	cg.wg.Wait()
}

// Wait blocks till all goroutines started so far return, without canceling
// the group context.
func (cg *CloseGroup) Wait() {
	cg.wg.Wait()
}

func (cg *CloseGroup) Context() context.Context {
	cg.once.Do(cg.init)
	return cg.closeCtx
}

// Go runs f in a new goroutine with the group context. Panics from f are
// logged and swallowed so that one background task cannot bring down the
// process.
func (cg *CloseGroup) Go(f func(ctx context.Context)) {
	cg.once.Do(cg.init)

	cg.wg.Add(1)
	go func() {
		defer cg.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				slog.Error("CAUGHT PANIC in background task (ignored)", "panic", r)
				slog.Error(string(debug.Stack()))
			}
		}()

		f(cg.closeCtx)
	}()
}

type closeGroupKey struct{}

// WithCloseGroup returns a context that reports the input group as the
// active background scheduler for the callers.
func WithCloseGroup(ctx context.Context, cg *CloseGroup) context.Context {
	return context.WithValue(ctx, closeGroupKey{}, cg)
}

// CloseGroupFrom returns the background scheduler attached to the context,
// if any. A group that is already closed is reported as absent.
func CloseGroupFrom(ctx context.Context) (*CloseGroup, bool) {
	cg, ok := ctx.Value(closeGroupKey{}).(*CloseGroup)
	if !ok || cg == nil {
		return nil, false
	}
	if context.Cause(cg.Context()) != nil {
		return nil, false
	}
	return cg, true
}
