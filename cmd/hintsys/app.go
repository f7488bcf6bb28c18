package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/yangjiwoo8465/proj-hint-system/internal/config"
	"github.com/yangjiwoo8465/proj-hint-system/internal/daemon"
)

// loadConfig reads the configuration from the hintsys home directory
func loadConfig() (*config.Config, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("get hintsys dir: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openApp wires the grading core. CLI logs go to stderr so stdout stays parseable.
func openApp(ctx context.Context) (*daemon.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	})))

	app, err := daemon.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("start grading core: %w", err)
	}
	return app, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// the CLI stays quiet unless asked
		return slog.LevelWarn
	}
}
