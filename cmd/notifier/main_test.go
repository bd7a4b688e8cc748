package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{level: "debug", enabled: slog.LevelDebug, muted: slog.LevelDebug - 1},
		{level: "info", enabled: slog.LevelInfo, muted: slog.LevelDebug},
		{level: "warn", enabled: slog.LevelWarn, muted: slog.LevelInfo},
		{level: "error", enabled: slog.LevelError, muted: slog.LevelWarn},
		{level: "bogus", enabled: slog.LevelInfo, muted: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := setupLogger(tt.level)
			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
			assert.False(t, logger.Enabled(context.Background(), tt.muted))
		})
	}
}
