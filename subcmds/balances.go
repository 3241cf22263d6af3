// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/bvk/lpbot/cli"
	"github.com/bvk/lpbot/lpapi"
	"github.com/bvk/lpbot/venue"
)

type Balances struct {
	VenueFlags
}

func (c *Balances) Synopsis() string {
	return "Prints the account's free balances on the venue"
}

func (c *Balances) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("balances", flag.ContinueOnError)
	c.VenueFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Balances) run(ctx context.Context, args []string) error {
	rpc, err := c.VenueFlags.Dial(ctx)
	if err != nil {
		return err
	}
	defer rpc.Close()

	lp := lpapi.New(rpc, c.Account)
	balanceMap, err := lp.FreeBalances(ctx)
	if err != nil {
		return err
	}

	var assets []venue.Asset
	for asset := range balanceMap {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].String() < assets[j].String()
	})

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Asset\tFree\t\n")
	for _, asset := range assets {
		fmt.Fprintf(tw, "%s\t%s\t\n", asset, balanceMap[asset])
	}
	return tw.Flush()
}
