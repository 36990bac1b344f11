package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var decryptCmd = cli.Command{
	Name:  "decrypt",
	Usage: "decrypt memo and amount of the wallet output of a raw transaction",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "raw_tx",
			Usage:    "the hex encoded raw transaction",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "viewing_key",
			Usage:    "the unified full viewing key of the wallet",
			Required: true,
		},
	},
	Action: decryptAction,
}

func decryptAction(ctx *cli.Context) error {
	return callDaemon(ctx, http.MethodPost, "/v1/decrypt", map[string]string{
		"raw_tx":      ctx.String("raw_tx"),
		"viewing_key": ctx.String("viewing_key"),
	})
}
