package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/brojonat/polywatch/client"
	natspkg "github.com/brojonat/polywatch/service/nats"
	"github.com/urfave/cli/v2"
)

func sseCommands() *cli.Command {
	return &cli.Command{
		Name:  "sse",
		Usage: "Server-Sent Events (SSE) streaming commands",
		Subcommands: []*cli.Command{
			streamCommand(),
		},
	}
}

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "Stream new activity via SSE (HTTP)",
		ArgsUsage: "[wallet_address]",
		Action: func(c *cli.Context) error {
			walletAddress := c.Args().First()
			jsonOutput := c.Bool("json")
			out := c.App.Writer

			// Create context that cancels on interrupt
			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)
			go func() {
				select {
				case <-sigChan:
					cancel()
				case <-ctx.Done():
				}
			}()

			if !jsonOutput {
				fmt.Fprintf(os.Stderr, "Streaming activity... (Ctrl+C to stop)\n\n")
			}

			cl := client.NewClient(c.String("server-url"), nil, nil)
			return cl.StreamActivity(ctx, walletAddress, func(e client.Event) error {
				if err := handleSSEEvent(out, e, jsonOutput); err != nil {
					fmt.Fprintf(os.Stderr, "Error handling event: %v\n", err)
				}
				return nil
			})
		},
	}
}

func handleSSEEvent(out io.Writer, e client.Event, jsonOutput bool) error {
	switch e.Type {
	case "connected":
		if !jsonOutput {
			var info map[string]interface{}
			if err := json.Unmarshal([]byte(e.Data), &info); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Subscribed to wallet: %v\n\n", info["wallet"])
		}
		return nil

	case "activity":
		var event natspkg.ActivityEvent
		if err := json.Unmarshal([]byte(e.Data), &event); err != nil {
			return err
		}
		if jsonOutput {
			fmt.Fprintln(out, e.Data)
			return nil
		}
		printActivityEvent(out, event, false)
		return nil

	case "error":
		var errInfo map[string]interface{}
		if err := json.Unmarshal([]byte(e.Data), &errInfo); err != nil {
			return err
		}
		return fmt.Errorf("server error: %v", errInfo["error"])

	default:
		// Unknown event type, ignore
		return nil
	}
}
