package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/polywatch/service/config"
	"github.com/brojonat/polywatch/service/filter"
	"github.com/brojonat/polywatch/service/metrics"
	natspkg "github.com/brojonat/polywatch/service/nats"
	"github.com/brojonat/polywatch/service/notify"
	"github.com/brojonat/polywatch/service/polymarket"
	"github.com/brojonat/polywatch/service/server"
	"github.com/brojonat/polywatch/service/watcher"
)

func main() {
	// Load and validate configuration from environment
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting polywatch notifier",
		"wallets", len(cfg.Wallets),
		"poll_interval", cfg.PollInterval,
		"activity_limit", cfg.ActivityLimit,
		"cursor_start", cfg.CursorStart,
		"log_level", cfg.LogLevel,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("notifier failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	// Initialize Prometheus metrics collector
	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	source := polymarket.NewClient(cfg.DataAPIURL, cfg.ActivityLimit, httpClient, metricsCollector, logger)

	activityFilter, err := filter.New(cfg.ConditionIDs, cfg.JQFilters)
	if err != nil {
		return fmt.Errorf("invalid activity filter: %w", err)
	}

	// Missing or rejected credentials abort before any loop starts.
	notifier, err := notify.NewTelegramNotifier(
		cfg.TelegramBotToken,
		cfg.TelegramChatID,
		cfg.TelegramAPIEndpoint,
		httpClient,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create telegram notifier: %w", err)
	}

	registry := watcher.NewRegistry()
	opts := []watcher.Option{
		watcher.WithFilter(activityFilter),
		watcher.WithRegistry(registry),
		watcher.WithMetrics(metricsCollector),
		watcher.WithConsole(os.Stdout),
	}

	var ssePublisher *server.SSEPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err := natspkg.NewPublisher(cfg.NATSURL, metricsCollector, logger)
		if err != nil {
			return fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		defer natsPublisher.Close()
		opts = append(opts, watcher.WithPublisher(natsPublisher))

		ssePublisher, err = server.NewSSEPublisher(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("failed to create SSE publisher: %w", err)
		}
	} else {
		logger.Info("NATS_URL not set, event publishing disabled")
	}

	if cfg.ServerAddr != "" {
		srv := server.New(cfg.ServerAddr, registry, ssePublisher, metricsCollector, logger)

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- srv.Start()
		}()
		go func() {
			if err := <-serverErrors; err != nil {
				logger.Error("HTTP server error", "error", err)
				cancel()
			}
		}()

		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown HTTP server", "error", err)
			}
		}()
	} else if ssePublisher != nil {
		defer ssePublisher.Close()
	}

	w := watcher.New(cfg, source, notifier, logger, opts...)
	return w.Run(ctx)
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
