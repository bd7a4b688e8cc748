package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brojonat/polywatch/service/notify"
	"github.com/brojonat/polywatch/service/polymarket"
	"github.com/urfave/cli/v2"
)

func notifyTestCommand() *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: "Send a test notification with the configured bot",
		Description: `Verify the Telegram bot token and chat id by sending one message.

With --wallet, the wallet's most recent activity is rendered with the same
template the notifier uses. Otherwise --message is sent as-is.

Examples:
  polywatch notify test
  polywatch notify test --wallet 0x1234...abcd`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "bot-token",
				Usage:   "Telegram bot token",
				EnvVars: []string{"TELEGRAM_BOT_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "chat-id",
				Usage:   "Telegram chat id or @channel",
				EnvVars: []string{"TELEGRAM_CHAT_ID"},
			},
			&cli.StringFlag{
				Name:    "api-endpoint",
				Usage:   "Telegram Bot API endpoint format",
				EnvVars: []string{"TELEGRAM_API_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:  "message",
				Usage: "Message text (HTML)",
				Value: "✅ <b>polywatch</b> test notification",
			},
			&cli.StringFlag{
				Name:  "wallet",
				Usage: "Render this wallet's latest activity instead of --message",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
			defer cancel()

			text := c.String("message")
			if wallet := strings.ToLower(c.String("wallet")); wallet != "" {
				source := polymarket.NewClient(c.String("data-api-url"), 1, nil, nil, nil)
				records, err := source.FetchActivity(ctx, wallet, 0)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return fmt.Errorf("no activity found for %s", wallet)
				}
				text = notify.FormatActivity(records[0], "")
			}

			notifier, err := notify.NewTelegramNotifier(
				c.String("bot-token"),
				c.String("chat-id"),
				c.String("api-endpoint"),
				nil,
				nil,
			)
			if err != nil {
				return err
			}

			if err := notifier.Send(ctx, text); err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "✓ Test notification sent to %s\n", c.String("chat-id"))
			return nil
		},
	}
}
