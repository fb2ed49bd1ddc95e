// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bvk/tradenotify/cli"
	"github.com/bvk/tradenotify/subcmds/cmdutil"
)

type Check struct {
	cmdutil.ConfigFlags

	noSend bool
}

func (c *Check) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("check", flag.ContinueOnError)
	c.ConfigFlags.SetFlags(fset)
	fset.BoolVar(&c.noSend, "no-send", false, "when true, only validates the settings")
	return fset, cli.CmdFunc(c.run)
}

func (c *Check) Synopsis() string {
	return "Validates the settings and sends a test notification"
}

func (c *Check) run(ctx context.Context, args []string) error {
	settings, err := c.ConfigFlags.Settings()
	if err != nil {
		return err
	}
	platform := settings.NotifyPlatform()
	logConfig, err := settings.LogConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Platform: %s\n", platform)
	fmt.Printf("Telegram configured: %t\n", settings.Telegram.Configured())
	fmt.Printf("PushPlus configured: %t\n", settings.PushPlus.Configured())
	fmt.Printf("Log file: %s (backup days %d, single file %t)\n", logConfig.Path(), logConfig.BackupDays, logConfig.SingleFile)

	if c.noSend {
		return nil
	}

	sink, err := cmdutil.SetupLogging(settings, nil)
	if err != nil {
		return err
	}
	defer sink.Close()

	host, _ := os.Hostname()
	content := fmt.Sprintf("tradenotify test message from %s at %s", host, time.Now().Format(time.DateTime))
	o, err := sendLocal(ctx, settings, content, "")
	if err != nil {
		return err
	}
	fmt.Printf("Test notification %s is delivered in %d attempt(s)\n", o.ID, o.Attempts)
	return nil
}
