package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/brojonat/polywatch/client"
	"github.com/urfave/cli/v2"
)

func statusListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List watched wallets and their cursors",
		Action: func(c *cli.Context) error {
			cl := client.NewClient(c.String("server-url"), nil, nil)

			ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
			defer cancel()

			wallets, err := cl.List(ctx)
			if err != nil {
				return err
			}

			out := c.App.Writer
			if c.Bool("json") {
				data, _ := json.MarshalIndent(wallets, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(wallets) == 0 {
				fmt.Fprintln(out, "No wallets watched")
				return nil
			}

			for _, w := range wallets {
				printWalletStatus(out, w)
			}
			fmt.Fprintf(out, "\nTotal: %d wallets\n", len(wallets))
			return nil
		},
	}
}

func statusGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one watched wallet",
		ArgsUsage: "WALLET_ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}

			cl := client.NewClient(c.String("server-url"), nil, nil)

			ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
			defer cancel()

			status, err := cl.Get(ctx, c.Args().First())
			if err != nil {
				return err
			}

			out := c.App.Writer
			if c.Bool("json") {
				data, _ := json.MarshalIndent(status, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}
			printWalletStatus(out, status)
			return nil
		},
	}
}

func printWalletStatus(out io.Writer, s *client.WalletStatus) {
	name := s.Address
	if s.Label != "" {
		name = fmt.Sprintf("%s (%s)", s.Label, s.Address)
	}
	fmt.Fprintf(out, "─────────────────────────────────────────────────────\n")
	fmt.Fprintf(out, "Wallet:       %s\n", name)
	if cursor := s.CursorTime(); !cursor.IsZero() {
		fmt.Fprintf(out, "Cursor:       %d (%s)\n", s.Cursor, cursor.Format(time.RFC3339))
	} else {
		fmt.Fprintf(out, "Cursor:       0\n")
	}
	if s.LastPoll != nil {
		fmt.Fprintf(out, "Last Poll:    %s\n", s.LastPoll.Format(time.RFC3339))
	} else {
		fmt.Fprintf(out, "Last Poll:    never\n")
	}
	fmt.Fprintf(out, "Ticks:        %d (%d fetch errors)\n", s.Ticks, s.FetchErrors)
	fmt.Fprintf(out, "New:          %d (%d filtered)\n", s.NewActivity, s.Filtered)
	fmt.Fprintf(out, "Notified:     %d (%d delivery errors)\n", s.Notified, s.DeliveryErrors)
	if s.LastError != "" {
		fmt.Fprintf(out, "Last Error:   %s\n", s.LastError)
	}
}
