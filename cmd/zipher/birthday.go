package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var estimateBirthdayCmd = cli.Command{
	Name:  "estimate-birthday",
	Usage: "estimate the birthday height of a wallet from its creation time",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "created_at",
			Usage:    "wallet creation time, either RFC3339 or unix milliseconds",
			Required: true,
		},
	},
	Action: estimateBirthdayAction,
}

func estimateBirthdayAction(ctx *cli.Context) error {
	createdAt, err := parseCreatedAt(ctx.String("created_at"))
	if err != nil {
		return err
	}

	fmt.Println(domain.EstimateBirthdayFromTimestamp(createdAt))
	return nil
}

func parseCreatedAt(value string) (time.Time, error) {
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid created_at %q: must be RFC3339 or unix milliseconds", value,
		)
	}
	return t, nil
}
