// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/tradenotify/api"
	"github.com/bvk/tradenotify/cli"
	"github.com/bvk/tradenotify/subcmds/cmdutil"
	"github.com/bvk/tradenotify/tradefmt"
	"github.com/shopspring/decimal"
)

type Trade struct {
	cmdutil.ConfigFlags
	cmdutil.ClientFlags

	remote bool
	dryRun bool

	side, symbol string

	price, amount, total, gridSize string

	baseAsset, quoteAsset string

	attempt, maxAttempts int
}

func (c *Trade) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("trade", flag.ContinueOnError)
	c.ConfigFlags.SetFlags(fset)
	c.ClientFlags.SetFlags(fset)
	fset.BoolVar(&c.remote, "remote", false, "when true, sends the notification through a running daemon")
	fset.BoolVar(&c.dryRun, "dry-run", false, "when true, prints the message without sending it")
	fset.StringVar(&c.side, "side", "", "trade side, buy or sell")
	fset.StringVar(&c.symbol, "symbol", "", "trading pair symbol, e.g., BNB/USDT")
	fset.StringVar(&c.price, "price", "0", "trade price")
	fset.StringVar(&c.amount, "amount", "0", "trade size in the base asset")
	fset.StringVar(&c.total, "total", "0", "trade value in the quote asset (default price*amount)")
	fset.StringVar(&c.gridSize, "grid", "0", "grid size in percent")
	fset.StringVar(&c.baseAsset, "base", "", "base asset name")
	fset.StringVar(&c.quoteAsset, "quote", "", "quote asset name")
	fset.IntVar(&c.attempt, "attempt", 0, "order placement attempt number")
	fset.IntVar(&c.maxAttempts, "max-attempts", 0, "maximum order placement attempts")
	return fset, cli.CmdFunc(c.run)
}

func (c *Trade) Synopsis() string {
	return "Sends a formatted trade execution notification"
}

func (c *Trade) request() (*api.TradeRequest, error) {
	req := &api.TradeRequest{
		Side:        c.side,
		Symbol:      c.symbol,
		BaseAsset:   c.baseAsset,
		QuoteAsset:  c.quoteAsset,
		Attempt:     c.attempt,
		MaxAttempts: c.maxAttempts,
	}
	for _, v := range []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"price", c.price, &req.Price},
		{"amount", c.amount, &req.Amount},
		{"total", c.total, &req.Total},
		{"grid", c.gridSize, &req.GridSize},
	} {
		d, err := decimal.NewFromString(v.value)
		if err != nil {
			return nil, fmt.Errorf("invalid -%s value %q: %w", v.name, v.value, err)
		}
		*v.dst = d
	}
	if err := req.Check(); err != nil {
		return nil, err
	}
	return req, nil
}

func (c *Trade) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("trade command takes no arguments")
	}
	req, err := c.request()
	if err != nil {
		return err
	}

	if c.remote {
		resp, err := cmdutil.Post[api.TradeResponse](ctx, &c.ClientFlags, api.TradePath, req)
		if err != nil {
			return fmt.Errorf("could not send trade notification through the daemon: %w", err)
		}
		fmt.Printf("trade notification is accepted by the daemon for %s delivery\n", resp.Platform)
		return nil
	}

	trade, err := req.Trade()
	if err != nil {
		return err
	}
	message := tradefmt.Format(trade)
	if c.dryRun {
		fmt.Println(message)
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

	o, err := sendLocal(ctx, settings, message, tradefmt.DefaultTitle)
	if err != nil {
		return err
	}
	fmt.Printf("trade notification %s is delivered through %s\n", o.ID, o.Platform)
	return nil
}
