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
)

type Status struct {
	ClientFlags
}

func (c *Status) Synopsis() string {
	return "Status prints a summary of the running daemon's order book"
}

func (c *Status) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	data, err := Get[statusData](ctx, &c.ClientFlags, "/status")
	if err != nil {
		return err
	}

	fmt.Printf("Pid: %d\n", data.Pid)
	fmt.Printf("Account: %s\n", data.Account)
	for _, instrument := range data.Instruments {
		fmt.Printf("Instrument: %s\n", instrument)
	}
	fmt.Println()
	fmt.Printf("Num Swaps Seen: %d\n", data.NumSwapsSeen)
	fmt.Printf("Num Open Orders: %d\n", data.NumOpenOrders)
	fmt.Printf("Memory RSS: %d\n", data.MemoryRSS)
	fmt.Printf("CPU Percent: %.02f\n", data.CPUPercent)

	if len(data.Orders) > 0 {
		orders := data.Orders
		sort.Slice(orders, func(i, j int) bool {
			return orders[i].CreateTime.Before(orders[j].CreateTime)
		})

		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "OrderID\tStatus\tPair\tSide\tAmount\tCreated\t\n")
		for _, order := range orders {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", order.OrderID, order.Status, order.Pair, order.Side, order.Amount, order.CreateTime.Format("2006-01-02 15:04:05"))
		}
		tw.Flush()
	}
	return nil
}
