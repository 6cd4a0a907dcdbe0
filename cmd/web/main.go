package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aimy/internal/config"
	"aimy/internal/logger"
	"aimy/internal/server"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		_ = logger.Init("info")
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
	}

	if err := server.Run(ctx, cfg); err != nil {
		log.Fatal(err.Error())
	}
}
