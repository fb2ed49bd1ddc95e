// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"

	"github.com/bvk/tradenotify/ctxutil"
	"github.com/google/uuid"
)

type Server struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	opts Options

	nextServerID atomic.Int64

	mutex      sync.Mutex
	serverMap  map[int64]*http.Server
	handlerMap map[string]http.Handler

	mux atomic.Pointer[http.ServeMux]
}

// New creates a http server.
func New(opts *Options) (*Server, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	s := &Server{
		ctx:        ctx,
		cancel:     cancel,
		opts:       *opts,
		serverMap:  make(map[int64]*http.Server),
		handlerMap: make(map[string]http.Handler),
	}
	s.updateHandlerMux()
	return s, nil
}

func (s *Server) Close() error {
	s.cancel(os.ErrClosed)

	s.mutex.Lock()
	for id, svr := range s.serverMap {
		svr.Close()
		delete(s.serverMap, id)
	}
	s.mutex.Unlock()

	s.wg.Wait()
	return nil
}

// StartTCP starts serving http requests on the tcp address and waits till the
// server responds to a test request. Port number of the input address is
// updated with the chosen port when it is zero.
func (s *Server) StartTCP(ctx context.Context, addr *net.TCPAddr) (id int64, status error) {
	l, err := net.Listen("tcp", addr.String())
	if err != nil {
		return -1, err
	}
	defer func() {
		if status != nil {
			l.Close()
		}
	}()

	if addr.Port == 0 {
		laddr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			return -1, fmt.Errorf("created listener addr is not *net.TCPAddr type")
		}
		addr.Port = laddr.Port
	}

	testPath := "/" + uuid.New().String()
	testHandler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		slog.Debug("received http server test request", "addr", addr, "remote", r.RemoteAddr)
	})
	s.AddHandler(testPath, testHandler)
	defer s.RemoveHandler(testPath)

	server := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return s.ctx
		},
	}
	defer func() {
		if status != nil {
			server.Close()
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := server.Serve(l); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.ErrorContext(ctx, "http server failed", "addr", addr, "err", err)
			}
		}
	}()

	c := http.Client{
		Timeout: s.opts.ServerCheckTimeout,
	}
	u := url.URL{
		Scheme: "http",
		Host:   l.Addr().String(),
		Path:   testPath,
	}

	tctx, tcancel := context.WithTimeout(ctx, s.opts.ServerCheckTimeout)
	defer tcancel()

	for {
		r, err := http.NewRequestWithContext(tctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return -1, err
		}
		resp, err := c.Do(r)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if err := ctxutil.Sleep(tctx, s.opts.ServerCheckRetryInterval); err != nil {
			return -1, fmt.Errorf("could not invoke test handler: %w", err)
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	id = s.nextServerID.Add(1) - 1
	s.serverMap[id] = server
	return id, nil
}

func (s *Server) Stop(id int64) error {
	s.mutex.Lock()
	svr, ok := s.serverMap[id]
	delete(s.serverMap, id)
	s.mutex.Unlock()

	if !ok {
		return fmt.Errorf("http server %d not found: %w", id, os.ErrNotExist)
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.StopTimeout)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Warn("http server did not shutdown gracefully; closing the connections", "server", id, "err", err)
		_ = svr.Close()
	}
	return nil
}

func (s *Server) AddHandler(pattern string, handler http.Handler) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.handlerMap[pattern] = handler
	s.updateHandlerMux()
}

func (s *Server) RemoveHandler(pattern string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.handlerMap[pattern]; !ok {
		return false
	}
	delete(s.handlerMap, pattern)
	s.updateHandlerMux()
	return true
}

func (s *Server) updateHandlerMux() {
	m := http.NewServeMux()
	for k, v := range s.handlerMap {
		m.Handle(k, v)
	}
	s.mux.Store(m)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.Load().ServeHTTP(w, r)
}
