// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/tradenotify/cli"
	"github.com/bvk/tradenotify/subcmds/cmdutil"
)

type PurgeLogs struct {
	cmdutil.ConfigFlags
}

func (c *PurgeLogs) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("purge", flag.ContinueOnError)
	c.ConfigFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *PurgeLogs) Synopsis() string {
	return "Removes the expired log files"
}

func (c *PurgeLogs) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("purge command takes no arguments")
	}
	settings, err := c.ConfigFlags.Settings()
	if err != nil {
		return err
	}
	sink, err := cmdutil.SetupLogging(settings, nil)
	if err != nil {
		return err
	}
	defer sink.Close()

	for _, fpath := range sink.PurgeExpired(time.Now()) {
		fmt.Println(fpath)
	}
	return nil
}
