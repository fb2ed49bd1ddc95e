// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/bvk/tradenotify/api"
	"github.com/bvk/tradenotify/cli"
	"github.com/bvk/tradenotify/ctxutil"
	"github.com/bvk/tradenotify/daemonize"
	"github.com/bvk/tradenotify/httputil"
	"github.com/bvk/tradenotify/logsink"
	"github.com/bvk/tradenotify/retry"
	"github.com/bvk/tradenotify/server"
	"github.com/bvk/tradenotify/subcmds/cmdutil"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/nightlyone/lockfile"
)

// lockFileName is the daemon lock file in the log directory.
const lockFileName = "tradenotify.lock"

type Run struct {
	cmdutil.ConfigFlags
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof bool
}

func (c *Run) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ConfigFlags.SetFlags(fset)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for pending deliveries at shutdown")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	return fset, cli.CmdFunc(c.run)
}

func (c *Run) Synopsis() string {
	return "Runs the notification daemon in foreground or background"
}

func (c *Run) CommandHelp() string {
	return `

Command "run" starts the notification daemon. Daemon accepts notification
requests over http and delivers them in the background, so that the callers
are never blocked by slow or failing notification services.

Settings are read from the environment (and the .tradenotify.env file in the
current directory or its parents) and optionally from a settings file given
with the -config flag. An example settings file in YAML format is:

    platform: "1"
    telegram:
      token: "123456:ABCDEF"
      channel_id: "-1001234567890"
    retry:
      max_attempts: 3
      base_delay: 2s
      max_delay: 10s
    log:
      dir: /var/log/tradenotify
      backup_days: 2
      single_file: true

Daemon writes the log messages to trading_system.log file in the log
directory, which is rotated at midnight, and removes the expired log files
every day.

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := c.ConfigFlags.Settings()
	if err != nil {
		return err
	}

	listen := settings.Listen
	if len(c.ServerFlags.Listen) != 0 {
		listen = c.ServerFlags.Listen
	}
	addr, err := net.ResolveTCPAddr("tcp", listen)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", listen, err)
	}

	logConfig, err := settings.LogConfig()
	if err != nil {
		return err
	}
	logDir, err := filepath.Abs(logConfig.Dir)
	if err != nil {
		return fmt.Errorf("could not determine log directory %q absolute path: %w", logConfig.Dir, err)
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("could not create log directory %q: %w", logDir, err)
	}

	// Health checker for the background process initialization. We need to
	// verify that responding http server is really our child and not an older
	// instance.
	check := func(ctx context.Context, pid int) error {
		client := http.Client{Timeout: time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s%s", addr.String(), api.PIDPath))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http status: %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if v := string(data); v != strconv.Itoa(pid) {
			return fmt.Errorf("is another instance already running? pid mismatch: want %d got %s", pid, v)
		}
		return nil
	}

	if c.background {
		if err := daemonize.Daemonize(ctx, check); err != nil {
			return err
		}
	}

	lockPath := filepath.Join(logDir, lockFileName)
	flock, err := c.lock(ctx, lockPath)
	if err != nil {
		return err
	}
	defer flock.Unlock()

	sink, err := cmdutil.SetupLogging(settings, func(cfg *logsink.Config) {
		cfg.Dir = logDir
		cfg.Keep = append(cfg.Keep, lockFileName)
		if daemonize.IsChild() {
			cfg.Console = io.Discard
		}
	})
	if err != nil {
		return err
	}
	defer sink.Close()

	slog.InfoContext(ctx, "using log directory", "dir", logDir, "pid", os.Getpid())
	sink.PurgeExpired(time.Now())

	dispatcher, err := settings.NewDispatcher()
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	sopts := &server.Options{
		PurgeSchedule:   settings.Log.PurgeSchedule,
		ShutdownTimeout: c.shutdownTimeout,
	}
	service, err := server.New(dispatcher, sink, sopts)
	if err != nil {
		return err
	}
	if err := service.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := service.Stop(context.Background()); err != nil {
			slog.Warn("could not complete all pending deliveries (ignored)", "err", err)
		}
	}()

	// Start HTTP server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	for k, v := range service.HandlerMap() {
		s.AddHandler(k, v)
	}
	s.AddHandler(api.PIDPath, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, strconv.Itoa(os.Getpid()))
	}))
	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
	}

	tcpServer, err := s.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Stop(tcpServer)

	slog.InfoContext(ctx, "started notification daemon", "addr", addr.String(), "platform", dispatcher.Platform())
	sdNotify(daemon.SdNotifyReady)

	// Wait for the signals

	<-ctx.Done()
	slog.Info("notification daemon is shutting down")
	sdNotify(daemon.SdNotifyStopping)
	return nil
}

// sdNotify reports the daemon state to systemd when running as a systemd
// service. It is a no-op otherwise.
func sdNotify(state string) {
	sent, err := daemon.SdNotify(false /* unsetEnvironment */, state)
	if err != nil {
		slog.Warn("could not notify systemd (ignored)", "state", state, "err", err)
		return
	}
	if sent {
		slog.Debug("notified systemd", "state", state)
	}
}

// lock takes the daemon lock. With the restart flag, previous owner of the
// lock is interrupted and waited on for the shutdown timeout, before it is
// killed.
func (c *Run) lock(ctx context.Context, lockPath string) (lockfile.Lockfile, error) {
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return flock, fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err == nil {
		return flock, nil
	} else if !c.restart {
		return flock, fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
	}

	owner, err := flock.GetOwner()
	if err != nil {
		return flock, fmt.Errorf("could not get current owner of the lock file: %w", err)
	}
	if err := owner.Signal(os.Interrupt); err == nil {
		slog.InfoContext(ctx, "waiting for the previous instance to shutdown", "pid", owner.Pid)
		policy := &retry.Policy{
			MaxAttempts: max(1, int(c.shutdownTimeout/time.Second)),
			BaseDelay:   time.Second,
			MaxDelay:    time.Second,
			Multiplier:  1,
		}
		tryLock := func(context.Context) (struct{}, error) {
			return struct{}{}, flock.TryLock()
		}
		if _, err := retry.Do(ctx, policy, "daemon-lock", tryLock); err != nil {
			if err := owner.Signal(os.Kill); err != nil {
				return flock, fmt.Errorf("could not kill current owner of the lock file: %w", err)
			}
			ctxutil.Sleep(ctx, 100*time.Millisecond)
		}
	}
	if err := flock.TryLock(); err != nil {
		return flock, fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
	}
	return flock, nil
}
