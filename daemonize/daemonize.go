// Copyright (c) 2023 BVK Chaitanya

package daemonize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bvk/tradenotify/ctxutil"
	"golang.org/x/sys/unix"
)

// DaemonizeEnvKey is used to identify if current process is a parent or child
// process. We expect this environment variable to be unique and not used (or
// set) by any other process. When it's value is non-empty, it contains the
// parent process pid.
var DaemonizeEnvKey = "TRADENOTIFY_DAEMONIZE"

// CheckFunc verifies that the background process with the given pid is
// initialized successfully.
type CheckFunc func(ctx context.Context, pid int) error

// IsChild returns true if the current process is the background process
// started by Daemonize.
func IsChild() bool {
	return len(os.Getenv(DaemonizeEnvKey)) != 0
}

// Daemonize respawns the current program in the background with the same
// command-line arguments, environment and working directory. Daemonize
// function *must* be called during the program startup before performing any
// other significant logic, like taking locks, starting servers, etc.
//
// Standard input and standard outputs in the background process are replaced
// with /dev/null, so the background process is expected to log into files.
//
// Parent process will use the check function to wait for the background
// process to initialize successfully or die unsuccessfully.
//
// When successful, Daemonize returns nil to the background process and exits
// the parent process (i.e., never returns). When unsuccessful, Daemonize
// returns non-nil error to the parent process and exits the background process
// (i.e., never returns).
func Daemonize(ctx context.Context, check CheckFunc) error {
	if !IsChild() {
		if err := daemonizeParent(ctx, check); err != nil {
			return err
		}
		os.Exit(0)
	}
	if err := daemonizeChild(); err != nil {
		slog.Error("could not initialize the background process", "err", err)
		os.Exit(1)
	}
	return nil
}

func daemonizeParent(ctx context.Context, check CheckFunc) error {
	binary, err := exec.LookPath(os.Args[0])
	if err != nil {
		return fmt.Errorf("failed to lookup binary: %w", err)
	}
	binaryPath, err := filepath.Abs(binary)
	if err != nil {
		return fmt.Errorf("could not determine absolute path for binary: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not determine working directory: %w", err)
	}

	file, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer file.Close()

	// Receive signal when child-process dies.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGCHLD, os.Interrupt)
	defer stop()

	attr := &os.ProcAttr{
		Dir:   cwd,
		Env:   append(os.Environ(), fmt.Sprintf("%s=%d", DaemonizeEnvKey, os.Getpid())),
		Files: []*os.File{file, file, file},
	}
	child, err := os.StartProcess(binaryPath, os.Args, attr)
	if err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}
	defer child.Release()

	if check != nil {
		for ctxutil.Sleep(ctx, time.Second) == nil {
			if err := check(ctx, child.Pid); err != nil {
				slog.WarnContext(ctx, "daemon process not yet initialized", "pid", child.Pid, "err", err)
				continue
			}
			break
		}
	}
	if err := context.Cause(ctx); err != nil {
		return fmt.Errorf("could not initialize the background process: %w", err)
	}
	return nil
}

func daemonizeChild() error {
	if _, err := unix.Setsid(); err != nil {
		return fmt.Errorf("could not set session id: %w", err)
	}
	return nil
}
