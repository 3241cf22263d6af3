// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/lpbot/cli"
	"github.com/bvk/lpbot/lpapi"
)

type CancelAll struct {
	VenueFlags
}

func (c *CancelAll) Synopsis() string {
	return "Cancels all resting orders of the account on the venue"
}

func (c *CancelAll) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("cancel-all", flag.ContinueOnError)
	c.VenueFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *CancelAll) CommandHelp() string {
	return `

Command "cancel-all" cancels every resting order of the LP account directly
on the venue. It talks to the venue node, not to a running daemon; a running
daemon notices the cancellations through the fills feed only if the orders
fill first, so prefer restarting the daemon after using this command.

`
}

func (c *CancelAll) run(ctx context.Context, args []string) error {
	rpc, err := c.VenueFlags.Dial(ctx)
	if err != nil {
		return err
	}
	defer rpc.Close()

	lp := lpapi.New(rpc, c.Account)
	if err := lp.CancelAllOrders(ctx); err != nil {
		return err
	}
	fmt.Println("canceled all resting orders")
	return nil
}
