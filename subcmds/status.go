// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bvk/tradenotify/api"
	"github.com/bvk/tradenotify/cli"
	"github.com/bvk/tradenotify/subcmds/cmdutil"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Synopsis() string {
	return "Status prints the delivery counters of a running daemon"
}

func (c *Status) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	stats, err := cmdutil.Get[api.StatsResponse](ctx, &c.ClientFlags, api.StatsPath)
	if err != nil {
		return fmt.Errorf("could not get daemon status: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Delivered\tFailed\tSkipped\t\n")
	fmt.Fprintf(tw, "%d\t%d\t%d\t\n", stats.Delivered, stats.Failed, stats.Skipped)
	tw.Flush()

	if len(stats.LastFailure) != 0 {
		fmt.Println()
		fmt.Printf("Last failure at %s: %s\n", stats.LastFailureTime, stats.LastFailure)
	}
	return nil
}
