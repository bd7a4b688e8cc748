package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	natspkg "github.com/brojonat/polywatch/service/nats"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"
)

// subscribeCommand subscribes to activity events for one or all wallets.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to activity events",
		ArgsUsage: "[wallet_address]",
		Description: `Subscribe to activity events published to NATS JetStream by the notifier.

Events are published to the subject: activity.{wallet_address}
Without a wallet address, events for every wallet are shown.

Example:
  polywatch nats subscribe 0x1234...abcd --json`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Create a durable consumer (survives restarts)",
			},
			&cli.StringFlag{
				Name:  "consumer-name",
				Usage: "Consumer name (required for durable)",
				Value: "polywatch-cli",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Replay every retained event instead of only new ones",
			},
		},
		Action: func(c *cli.Context) error {
			subject := natspkg.StreamSubjects
			if c.NArg() > 0 {
				subject = natspkg.Subject(strings.ToLower(c.Args().First()))
			}

			return streamActivity(c.App.Writer, c.String("nats-url"), subject, c.Bool("durable"), c.String("consumer-name"), c.Bool("all"), c.Bool("json"))
		},
	}
}

// streamActivity connects to NATS and prints activity events until interrupted.
func streamActivity(out io.Writer, natsURL, subject string, durable bool, consumerName string, replay, jsonOutput bool) error {
	nc, err := natspkg.Connect(natsURL, "polywatch-cli")
	if err != nil {
		return err
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if !jsonOutput {
		fmt.Fprintf(out, "📡 Subscribing to: %s\n", subject)
		fmt.Fprintf(out, "   NATS: %s\n", natsURL)
		if durable {
			fmt.Fprintf(out, "   Consumer: %s (durable)\n", consumerName)
		}
		fmt.Fprintf(out, "\nWaiting for activity... (Ctrl-C to exit)\n\n")
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	}
	if replay {
		consumerConfig.DeliverPolicy = jetstream.DeliverAllPolicy
	}
	if durable {
		consumerConfig.Durable = consumerName
		consumerConfig.Name = consumerName
	}

	cons, err := js.CreateOrUpdateConsumer(context.Background(), natspkg.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgChan := make(chan jetstream.Msg, 10)
	cc, err := cons.Consume(func(msg jetstream.Msg) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	count := 0
	for {
		select {
		case msg := <-msgChan:
			var event natspkg.ActivityEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				if !jsonOutput {
					fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
				}
				msg.Ack()
				continue
			}

			count++
			printActivityEvent(out, event, jsonOutput)
			msg.Ack()

		case <-sigChan:
			if !jsonOutput {
				fmt.Fprintf(out, "\n\n✅ Received %d events\n", count)
				fmt.Fprintln(out, "Shutting down...")
			}
			return nil
		}
	}
}

func printActivityEvent(out io.Writer, event natspkg.ActivityEvent, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(event)
		fmt.Fprintln(out, string(data))
		return
	}

	wallet := event.WalletAddress
	if event.WalletLabel != "" {
		wallet = fmt.Sprintf("%s (%s)", event.WalletLabel, event.WalletAddress)
	}
	fmt.Fprintf(out, "Wallet:     %s\n", wallet)
	printActivity(out, event.Activity)
	fmt.Fprintf(out, "Published:  %s\n\n", event.PublishedAt.Format(time.RFC3339))
}

// inspectStreamCommand shows information about the NATS JetStream stream.
func inspectStreamCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect-stream",
		Usage: "Inspect the ACTIVITY JetStream stream",
		Description: `Show information about the JetStream stream including:
- Message count
- Consumers
- Storage usage
- Stream configuration

Example:
  polywatch nats inspect-stream`,
		Action: func(c *cli.Context) error {
			nc, err := natspkg.Connect(c.String("nats-url"), "polywatch-cli")
			if err != nil {
				return err
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("failed to create JetStream context: %w", err)
			}

			ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
			defer cancel()

			stream, err := js.Stream(ctx, natspkg.StreamName)
			if err != nil {
				return fmt.Errorf("failed to get stream: %w", err)
			}

			info, err := stream.Info(ctx)
			if err != nil {
				return fmt.Errorf("failed to get stream info: %w", err)
			}

			out := c.App.Writer
			if c.Bool("json") {
				data, _ := json.MarshalIndent(info, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "Stream: %s\n", info.Config.Name)
			fmt.Fprintf(out, "─────────────────────────────────────────────────────\n")
			fmt.Fprintf(out, "Description:  %s\n", info.Config.Description)
			fmt.Fprintf(out, "Subjects:     %v\n", info.Config.Subjects)
			fmt.Fprintf(out, "Messages:     %d\n", info.State.Msgs)
			fmt.Fprintf(out, "Bytes:        %d\n", info.State.Bytes)
			fmt.Fprintf(out, "First Seq:    %d\n", info.State.FirstSeq)
			fmt.Fprintf(out, "Last Seq:     %d\n", info.State.LastSeq)
			fmt.Fprintf(out, "Consumers:    %d\n", info.State.Consumers)
			fmt.Fprintf(out, "Max Age:      %s\n", info.Config.MaxAge)
			fmt.Fprintf(out, "Duplicates:   %s\n", info.Config.Duplicates)
			fmt.Fprintf(out, "Storage:      %s\n", info.Config.Storage)
			fmt.Fprintf(out, "\n")
			return nil
		},
	}
}
