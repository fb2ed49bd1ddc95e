// Copyright (c) 2023 BVK Chaitanya

// Package server implements the notification daemon service, which accepts
// notification requests over http and delivers them in the background.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bvk/tradenotify/api"
	"github.com/bvk/tradenotify/ctxutil"
	"github.com/bvk/tradenotify/httputil"
	"github.com/bvk/tradenotify/logsink"
	"github.com/bvk/tradenotify/notify"
	"github.com/bvk/tradenotify/tradefmt"
	"github.com/visvasity/topic"
)

type Server struct {
	opts Options

	dispatcher *notify.Dispatcher

	sink *logsink.Sink

	// deliveries is the background scheduler for notification deliveries.
	deliveries ctxutil.CloseGroup

	// background runs the server's own goroutines.
	background ctxutil.CloseGroup

	stopPurger  func()
	stopWatcher func()

	mu    sync.Mutex
	stats api.StatsResponse
}

// New creates a notification service. Log sink is optional; when non-nil,
// expired log files are purged periodically.
func New(dispatcher *notify.Dispatcher, sink *logsink.Sink, opts *Options) (*Server, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	s := &Server{
		opts:       *opts,
		dispatcher: dispatcher,
		sink:       sink,
	}
	return s, nil
}

// Start starts the outcome collection and the log purge schedule.
func (s *Server) Start(ctx context.Context) error {
	receiver, err := s.dispatcher.Subscribe()
	if err != nil {
		return fmt.Errorf("could not subscribe to delivery outcomes: %w", err)
	}
	outcomeCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		receiver.Close()
		return fmt.Errorf("could not create outcome channel: %w", err)
	}
	s.background.Go(func(ctx context.Context) {
		defer receiver.Close()
		s.collect(ctx, outcomeCh)
	})

	if s.sink != nil {
		stop, err := s.sink.StartPurger(s.opts.PurgeSchedule)
		if err != nil {
			s.background.Close()
			return err
		}
		s.stopPurger = stop

		if stop, err := s.sink.WatchActive(); err != nil {
			slog.WarnContext(ctx, "could not watch the active log file (ignored)", "err", err)
		} else {
			s.stopWatcher = stop
		}
	}
	slog.InfoContext(ctx, "notification service is started", "platform", s.dispatcher.Platform())
	return nil
}

// Stop waits for the pending background deliveries for up to the shutdown
// timeout or till the input context is canceled and cancels the rest.
func (s *Server) Stop(ctx context.Context) error {
	if s.stopPurger != nil {
		s.stopPurger()
		s.stopPurger = nil
	}
	if s.stopWatcher != nil {
		s.stopWatcher()
		s.stopWatcher = nil
	}

	done := make(chan struct{})
	go func() {
		s.deliveries.Wait()
		close(done)
	}()

	var err error
	timeout := time.NewTimer(s.opts.ShutdownTimeout)
	defer timeout.Stop()

	select {
	case <-done:
	case <-timeout.C:
		err = fmt.Errorf("pending deliveries are canceled after shutdown timeout: %w", os.ErrDeadlineExceeded)
	case <-ctx.Done():
		err = fmt.Errorf("pending deliveries are canceled: %w", context.Cause(ctx))
	}
	s.deliveries.Close()
	s.background.Close()
	return err
}

func (s *Server) collect(ctx context.Context, outcomeCh <-chan *notify.Outcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case o, ok := <-outcomeCh:
			if !ok {
				return
			}
			if o != nil {
				s.record(o)
			}
		}
	}
}

func (s *Server) record(o *notify.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case o.Success():
		s.stats.Delivered++
	case o.Skipped():
		s.stats.Skipped++
	default:
		s.stats.Failed++
		s.stats.LastFailure = o.Err.Error()
		s.stats.LastFailureTime = o.At.Format(time.RFC3339)
	}
}

// Stats returns a copy of the outcome counters.
func (s *Server) Stats() *api.StatsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	return &stats
}

// HandlerMap returns the http handlers for the notification service.
func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.NotifyPath: httputil.JSONHandler(s.doNotify),
		api.TradePath:  httputil.JSONHandler(s.doTrade),
		api.StatsPath:  http.HandlerFunc(s.serveStats),
	}
}

func (s *Server) send(ctx context.Context, content, title string) *api.NotifyResponse {
	// Deliveries are started in the server's scheduler so that they outlive
	// the http request.
	s.dispatcher.Send(ctxutil.WithCloseGroup(ctx, &s.deliveries), content, title)

	platform := s.dispatcher.Platform()
	return &api.NotifyResponse{
		Platform:   platform.String(),
		Background: platform == notify.PlatformTelegram,
	}
}

func (s *Server) doNotify(ctx context.Context, req *api.NotifyRequest) (*api.NotifyResponse, error) {
	return s.send(ctx, req.Content, req.Title), nil
}

func (s *Server) doTrade(ctx context.Context, req *api.TradeRequest) (*api.TradeResponse, error) {
	trade, err := req.Trade()
	if err != nil {
		return nil, err
	}
	return s.send(ctx, tradefmt.Format(trade), tradefmt.DefaultTitle), nil
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	httputil.WriteJSON(w, s.Stats())
}
