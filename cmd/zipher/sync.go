package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var syncCmd = cli.Command{
	Name:   "sync",
	Usage:  "scan the blocks not yet processed and print the updated balance",
	Action: syncAction,
}

var balanceCmd = cli.Command{
	Name:   "balance",
	Usage:  "print the balance recorded by the last completed sync",
	Action: balanceAction,
}

var resetCmd = cli.Command{
	Name:   "reset",
	Usage:  "drop the sync state so that the next sync starts over from the wallet birthday",
	Action: resetAction,
}

func syncAction(ctx *cli.Context) error {
	return callDaemon(ctx, http.MethodPost, "/v1/sync", nil)
}

func balanceAction(ctx *cli.Context) error {
	return callDaemon(ctx, http.MethodGet, "/v1/balance", nil)
}

func resetAction(ctx *cli.Context) error {
	if err := callDaemon(ctx, http.MethodPost, "/v1/reset", nil); err != nil {
		return err
	}
	fmt.Println("sync state has been reset")
	return nil
}
