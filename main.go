// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/tradenotify/cli"
	"github.com/bvk/tradenotify/subcmds"
)

func main() {
	logsCmds := []cli.Command{
		new(subcmds.PurgeLogs),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Send),
		new(subcmds.Trade),
		new(subcmds.Check),
		new(subcmds.Status),
		cli.CommandGroup("logs", "Manage log files", logsCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
