// Copyright (c) 2025 BVK Chaitanya

// Command lpbot is a market-making daemon for a cross-chain swap venue. It
// watches scheduled swaps on configured instruments and provides liquidity
// against them by resting limit orders at the venue's prevailing pool price.
package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/lpbot/cli"
	"github.com/bvk/lpbot/envfile"
	"github.com/bvk/lpbot/subcmds"
)

func main() {
	// Pick up LPBOT_* defaults (e.g., LPBOT_SERVER_PORT) from an optional env
	// file next to the working directory or the home directory.
	if err := envfile.UpdateEnv(".lpbot.env", envfile.SearchCurrentDir(true)); err != nil {
		log.Printf("could not read env file (ignored): %v", err)
	}

	venueCmds := []cli.Command{
		new(subcmds.Balances),
		new(subcmds.CancelAll),
		new(subcmds.Deposit),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		new(subcmds.Setup),
		cli.CommandGroup("venue", "Query/update the venue directly", venueCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
