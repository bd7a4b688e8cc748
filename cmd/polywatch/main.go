package main

import (
	"fmt"
	"log"
	"os"

	"github.com/brojonat/polywatch/service/polymarket"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "polywatch",
		Usage: "Polymarket wallet activity notifier CLI",
		Description: `A command-line tool for inspecting Polymarket activity and debugging the polywatch notifier.

Use this CLI to preview wallet activity and filters, look up markets, send a
test notification, and inspect the running notifier's status and event stream.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Data API commands
			activityCommand(),
			// Gamma API commands
			{
				Name:  "market",
				Usage: "Market lookup commands",
				Subcommands: []*cli.Command{
					marketGetCommand(),
					marketsByTagCommand(),
				},
			},
			// Telegram commands
			{
				Name:  "notify",
				Usage: "Notification commands",
				Subcommands: []*cli.Command{
					notifyTestCommand(),
				},
			},
			// Status API commands
			{
				Name:  "status",
				Usage: "Inspect the running notifier",
				Subcommands: []*cli.Command{
					statusListCommand(),
					statusGetCommand(),
				},
			},
			// NATS activity streaming commands
			{
				Name:  "nats",
				Usage: "NATS activity streaming commands",
				Subcommands: []*cli.Command{
					subscribeCommand(),
					inspectStreamCommand(),
				},
			},
			// SSE streaming commands
			sseCommands(),
			// Server utility commands
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Notifier status server URL",
				EnvVars: []string{"SERVER_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
			&cli.StringFlag{
				Name:    "data-api-url",
				Usage:   "Polymarket data API base URL",
				EnvVars: []string{"DATA_API_URL"},
				Value:   polymarket.DefaultDataAPIURL,
			},
			&cli.StringFlag{
				Name:    "gamma-api-url",
				Usage:   "Polymarket gamma API base URL",
				EnvVars: []string{"GAMMA_API_URL"},
				Value:   polymarket.DefaultGammaAPIURL,
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
	}
}
