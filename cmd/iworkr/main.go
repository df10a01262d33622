package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iworkr/iworkr-stack-sub004/adapter/cli"
	"github.com/iworkr/iworkr-stack-sub004/adapter/cli/mcp"
	"github.com/iworkr/iworkr-stack-sub004/adapter/cli/schedule"
	"github.com/iworkr/iworkr-stack-sub004/internal/app"
	"github.com/iworkr/iworkr-stack-sub004/pkg/config"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cfg.Version))
	cli.SetLogger(logger)
	cli.Version = cfg.Version

	// Commands that only print stay usable without a database in development.
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.AddCommand(schedule.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}
