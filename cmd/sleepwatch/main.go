// Package main runs the sleepwatch service: it samples motion sensors over
// MQTT during the configured sleep window, scores finished sessions with
// Gemini, and serves reports and controls over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/sleepwatch/internal/config"
	"github.com/phrazzld/sleepwatch/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("sleepwatch: %v", err)
		stop()
		os.Exit(1)
	}
}

// run wires the application from configuration and blocks until ctx ends.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"bed_time", cfg.Tracking.BedTime,
		"wake_time", cfg.Tracking.WakeTime,
		"tracking_enabled", cfg.Tracking.Enabled)
	if cfg.LLM.GeminiAPIKey != "" {
		slog.Debug("LLM configuration", "gemini_api_key_present", true)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}
