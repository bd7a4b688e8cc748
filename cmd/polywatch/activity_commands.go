package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/brojonat/polywatch/service/filter"
	"github.com/brojonat/polywatch/service/notify"
	"github.com/brojonat/polywatch/service/polymarket"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

func activityCommand() *cli.Command {
	return &cli.Command{
		Name:      "activity",
		Usage:     "Show recent activity for a wallet",
		ArgsUsage: "WALLET_ADDRESS",
		Description: `Fetch recent activity from the Polymarket data API, newest first (oldest
first with --since), and optionally apply the same filters the notifier uses.

Examples:
  polywatch activity 0x1234...abcd --limit 5
  polywatch activity 0x1234...abcd --jq '.side == "BUY"' --jq '.usdcSize > 100'
  polywatch activity 0x1234...abcd --since 1723772500 --json`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Number of records to fetch (1-500)",
				Value:   10,
			},
			&cli.Int64Flag{
				Name:  "since",
				Usage: "Only show activity newer than this unix timestamp",
			},
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq predicate a record must satisfy (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "condition-id",
				Usage: "Only show activity in these markets (repeatable)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := strings.ToLower(c.Args().First())
			if !common.IsHexAddress(address) {
				return fmt.Errorf("invalid wallet address: %s", address)
			}

			limit := c.Int("limit")
			if limit < 1 || limit > 500 {
				return fmt.Errorf("limit must be between 1 and 500")
			}

			f, err := filter.New(c.StringSlice("condition-id"), c.StringSlice("jq"))
			if err != nil {
				return err
			}

			source := polymarket.NewClient(c.String("data-api-url"), limit, nil, nil, nil)

			ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
			defer cancel()

			records, err := source.FetchActivity(ctx, address, c.Int64("since"))
			if err != nil {
				return err
			}

			out := c.App.Writer
			matched := 0
			for _, a := range records {
				if !f.Match(a) {
					continue
				}
				matched++

				if c.Bool("json") {
					data, _ := json.Marshal(a)
					fmt.Fprintln(out, string(data))
					continue
				}
				printActivity(out, a)
			}

			if !c.Bool("json") {
				fmt.Fprintf(out, "%d of %d records shown\n", matched, len(records))
			}
			return nil
		},
	}
}

func marketGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Look up a market by condition id",
		ArgsUsage: "CONDITION_ID",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("condition id is required")
			}

			gamma := polymarket.NewGammaClient(c.String("gamma-api-url"), nil, nil, nil)

			ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
			defer cancel()

			market, err := gamma.MarketByConditionID(ctx, c.Args().First())
			if err != nil {
				return err
			}

			out := c.App.Writer
			if c.Bool("json") {
				data, _ := json.MarshalIndent(market, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}
			printMarket(out, *market)
			return nil
		},
	}
}

func marketsByTagCommand() *cli.Command {
	return &cli.Command{
		Name:  "by-tag",
		Usage: "List open markets under one or more tags",
		Description: `List open markets for each tag id, to pick condition ids for CONDITION_IDS.

Example:
  polywatch market by-tag --tag 100639 --tag 21 --limit 20`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "tag",
				Aliases:  []string{"t"},
				Usage:    "Gamma tag id (repeatable)",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Markets per tag",
				Value: 50,
			},
		},
		Action: func(c *cli.Context) error {
			gamma := polymarket.NewGammaClient(c.String("gamma-api-url"), nil, nil, nil)

			ctx, cancel := context.WithTimeout(c.Context, 60*time.Second)
			defer cancel()

			markets, err := gamma.MarketsByTags(ctx, c.StringSlice("tag"), c.Int("limit"))
			if err != nil {
				return err
			}

			out := c.App.Writer
			if c.Bool("json") {
				data, _ := json.MarshalIndent(markets, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}

			for _, m := range markets {
				fmt.Fprintf(out, "[%s] %s\n", m.TagID, m.Question)
				fmt.Fprintf(out, "   condition: %s\n", m.ConditionID)
			}
			fmt.Fprintf(out, "\n%d markets\n", len(markets))
			return nil
		},
	}
}

func printActivity(out io.Writer, a polymarket.Activity) {
	fmt.Fprintf(out, "─────────────────────────────────────────────────────\n")
	fmt.Fprintf(out, "Time:       %s\n", a.Time().Format(notify.TimeLayout))
	fmt.Fprintf(out, "Type:       %s\n", a.Type)
	fmt.Fprintf(out, "Market:     %s\n", a.Title)
	if a.Outcome != "" {
		fmt.Fprintf(out, "Outcome:    %s\n", a.Outcome)
	}
	if a.Side != "" {
		fmt.Fprintf(out, "Side:       %s\n", a.Side)
	}
	fmt.Fprintf(out, "Size:       %s @ $%s\n", a.Size.String(), a.Price.String())
	fmt.Fprintf(out, "Value:      $%s\n", a.Value().StringFixed(2))
	fmt.Fprintf(out, "Tx:         %s\n", a.ID)
	fmt.Fprintf(out, "Timestamp:  %d\n", a.Timestamp)
}

func printMarket(out io.Writer, m polymarket.Market) {
	fmt.Fprintf(out, "Question:   %s\n", m.Question)
	fmt.Fprintf(out, "Condition:  %s\n", m.ConditionID)
	fmt.Fprintf(out, "Slug:       %s\n", m.Slug)
	if m.EndDate != "" {
		fmt.Fprintf(out, "Ends:       %s\n", m.EndDate)
	}
	fmt.Fprintf(out, "Active:     %t\n", m.Active)
	fmt.Fprintf(out, "Closed:     %t\n", m.Closed)
}
