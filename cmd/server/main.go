package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rl1809/cash-dispenser/internal/app"
	"github.com/rl1809/cash-dispenser/internal/config"
	"github.com/rl1809/cash-dispenser/internal/log"
)

func main() {
	logger := log.New(log.DefaultConfig())

	cfg, err := config.Load(".env")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	logCfg := log.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.LogFormat
	logger = log.New(logCfg)
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
