// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/tradenotify/api"
	"github.com/bvk/tradenotify/cli"
	"github.com/bvk/tradenotify/subcmds/cmdutil"
)

type Send struct {
	cmdutil.ConfigFlags
	cmdutil.ClientFlags

	title  string
	remote bool
}

func (c *Send) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("send", flag.ContinueOnError)
	c.ConfigFlags.SetFlags(fset)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.title, "title", "", "notification title (default \"交易信号通知\")")
	fset.BoolVar(&c.remote, "remote", false, "when true, sends the notification through a running daemon")
	return fset, cli.CmdFunc(c.run)
}

func (c *Send) Synopsis() string {
	return "Sends a notification message"
}

func (c *Send) CommandHelp() string {
	return `

Command "send" delivers the text from the command-line arguments (or the
standard input) through the configured notification channel and waits for the
delivery to complete.

With the -remote flag, the notification is handed over to a running daemon
(see "run" command), which delivers it in the background.

`
}

func (c *Send) run(ctx context.Context, args []string) error {
	content, err := readContent(args)
	if err != nil {
		return err
	}

	if c.remote {
		req := &api.NotifyRequest{Content: content, Title: c.title}
		resp, err := cmdutil.Post[api.NotifyResponse](ctx, &c.ClientFlags, api.NotifyPath, req)
		if err != nil {
			return fmt.Errorf("could not send notification through the daemon: %w", err)
		}
		fmt.Printf("notification is accepted by the daemon for %s delivery\n", resp.Platform)
		return nil
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

	o, err := sendLocal(ctx, settings, content, c.title)
	if err != nil {
		return err
	}
	fmt.Printf("notification %s is delivered through %s in %d attempt(s)\n", o.ID, o.Platform, o.Attempts)
	return nil
}
