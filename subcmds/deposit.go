// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/lpbot/cli"
	"github.com/bvk/lpbot/lpapi"
	"github.com/bvk/lpbot/venue"
)

type Deposit struct {
	VenueFlags
}

func (c *Deposit) Synopsis() string {
	return "Requests a liquidity deposit address for an asset"
}

func (c *Deposit) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("deposit", flag.ContinueOnError)
	c.VenueFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Deposit) CommandHelp() string {
	return `

Command "deposit" requests a fresh liquidity deposit address for the given
asset, e.g.,

    $ lpbot deposit Bitcoin.BTC

Funds transferred to the printed address are credited to the LP account's
free balance on the venue after chain confirmation.

`
}

func (c *Deposit) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("deposit takes one Chain.SYMBOL asset argument")
	}
	asset, err := venue.ParseAsset(args[0])
	if err != nil {
		return err
	}

	rpc, err := c.VenueFlags.Dial(ctx)
	if err != nil {
		return err
	}
	defer rpc.Close()

	lp := lpapi.New(rpc, c.Account)
	address, err := lp.LiquidityDeposit(ctx, asset)
	if err != nil {
		return err
	}
	fmt.Printf("%s deposit address: %s\n", asset, address)
	return nil
}
