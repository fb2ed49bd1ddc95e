// Copyright (c) 2025 BVK Chaitanya

// Package notify delivers notification messages through the configured
// channel.
//
// Dispatcher.Send is safe to call from any context and never fails. When the
// context carries a background scheduler (see ctxutil.WithCloseGroup) chat-bot
// deliveries are started in the background and Send returns immediately.
// Without a scheduler, Send blocks till the delivery is complete. Push
// deliveries are always synchronous and are not retried.
//
// Delivery outcomes are logged and published to the subscribers of the
// dispatcher.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bvk/tradenotify/ctxutil"
	"github.com/bvk/tradenotify/monitor"
	"github.com/bvk/tradenotify/retry"
	"github.com/google/uuid"
	"github.com/visvasity/topic"
)

// DefaultTitle is used when Send is called with an empty title.
const DefaultTitle = "交易信号通知"

// Channel is a remote notification transport.
type Channel interface {
	Deliver(ctx context.Context, content, title string) error
}

type Options struct {
	Platform Platform

	// Telegram is the chat-bot channel. Nil if it is not configured.
	Telegram Channel

	// PushPlus is the push-http channel. Nil if it is not configured.
	PushPlus Channel

	// Retry is the retry policy for chat-bot deliveries. Nil selects the
	// default policy.
	Retry *retry.Policy
}

func (v *Options) Check() error {
	if v.Retry != nil {
		if err := v.Retry.Check(); err != nil {
			return fmt.Errorf("invalid retry policy: %w", err)
		}
	}
	return nil
}

type Dispatcher struct {
	opts Options

	mu     sync.RWMutex
	closed bool

	outcomes *topic.Topic[*Outcome]
}

func New(opts *Options) (*Dispatcher, error) {
	if opts == nil {
		opts = new(Options)
	}
	if err := opts.Check(); err != nil {
		return nil, err
	}
	d := &Dispatcher{
		opts:     *opts,
		outcomes: topic.New[*Outcome](),
	}
	return d, nil
}

// Close closes the outcome topic. Background deliveries are owned by the
// caller's scheduler and must be waited on separately.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.closed {
		d.closed = true
		d.outcomes.Close()
	}
	return nil
}

// Platform returns the currently selected notification platform.
func (d *Dispatcher) Platform() Platform {
	return d.opts.Platform
}

// Subscribe returns a receiver for the delivery outcomes of all future
// dispatches. Receiver must be closed by the caller.
func (d *Dispatcher) Subscribe() (*topic.Receiver[*Outcome], error) {
	return topic.Subscribe(d.outcomes, 0, false /* includeRecent */)
}

// Send delivers the content with the title through the selected channel. It
// never returns an error or panics; all outcomes are logged.
func (d *Dispatcher) Send(ctx context.Context, content, title string) {
	if len(title) == 0 {
		title = DefaultTitle
	}
	id := uuid.New().String()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "CAUGHT PANIC in notification dispatch (ignored)", "id", id, "panic", r)
			slog.ErrorContext(ctx, string(debug.Stack()))
		}
	}()

	platform := d.opts.Platform
	switch platform {
	case PlatformTelegram:
		if d.opts.Telegram == nil {
			slog.WarnContext(ctx, "telegram notification channel is not configured; skipping notification", "id", id, "title", title)
			d.publish(&Outcome{ID: id, Platform: platform, Title: title, Err: ErrChannelUnconfigured})
			return
		}

		if cg, ok := ctxutil.CloseGroupFrom(ctx); ok {
			cg.Go(func(gctx context.Context) {
				d.deliverTelegram(gctx, id, content, title)
			})
			return
		}
		d.deliverTelegram(ctx, id, content, title)

	case PlatformPushPlus:
		if d.opts.PushPlus == nil {
			slog.WarnContext(ctx, "pushplus notification channel is not configured; skipping notification", "id", id, "title", title)
			d.publish(&Outcome{ID: id, Platform: platform, Title: title, Err: ErrChannelUnconfigured})
			return
		}
		d.deliverPushPlus(ctx, id, content, title)

	case PlatformNone:
		slog.DebugContext(ctx, "notifications are disabled; skipping notification", "id", id, "title", title)
		d.publish(&Outcome{ID: id, Platform: platform, Title: title, Err: ErrChannelUnconfigured})

	default:
		slog.WarnContext(ctx, "unknown notification platform; skipping notification", "id", id, "platform", platform, "title", title)
		d.publish(&Outcome{ID: id, Platform: platform, Title: title, Err: ErrUnknownChannel})
	}
}

func (d *Dispatcher) deliverTelegram(ctx context.Context, id, content, title string) {
	attempts := 0
	deliver := func(ctx context.Context) (struct{}, error) {
		attempts++
		return struct{}{}, d.opts.Telegram.Deliver(ctx, content, title)
	}
	send := func(ctx context.Context) (struct{}, error) {
		return retry.Do(ctx, d.opts.Retry, "telegram-send", deliver)
	}

	_, err := monitor.Do(ctx, "telegram-send", send)
	o := &Outcome{ID: id, Platform: PlatformTelegram, Title: title, Attempts: attempts, Err: err}
	if err != nil {
		slog.ErrorContext(ctx, "could not send telegram notification (ignored)", "id", id, "title", title, "attempts", attempts, "err", err)
	} else {
		slog.InfoContext(ctx, "telegram notification is sent", "id", id, "title", title, "attempts", attempts)
	}
	d.publish(o)
}

func (d *Dispatcher) deliverPushPlus(ctx context.Context, id, content, title string) {
	err := d.opts.PushPlus.Deliver(ctx, content, title)
	o := &Outcome{ID: id, Platform: PlatformPushPlus, Title: title, Attempts: 1, Err: err}
	if err != nil {
		slog.ErrorContext(ctx, "could not send push notification (ignored)", "id", id, "title", title, "err", err)
	} else {
		slog.InfoContext(ctx, "push notification is sent", "id", id, "title", title, "content", content)
	}
	d.publish(o)
}

func (d *Dispatcher) publish(o *Outcome) {
	o.At = time.Now()

	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.closed {
		d.outcomes.Send(o)
	}
}
