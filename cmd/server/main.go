package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"casestatus/internal/app"
	"casestatus/internal/platform/config"
	"casestatus/internal/platform/health"
	"casestatus/internal/platform/logger"
)

// main loads configuration, builds the runtime and serves until SIGINT or
// SIGTERM. Business logic lives in the internal service packages.
func main() {
	configPath := flag.String("config", envOr("CASESTATUS_CONFIG", "configs/casestatus.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	log.Info("initializing casestatus",
		"version", health.Version,
		"environment", cfg.Environment,
		"addr", cfg.Server.Addr,
		"postgres", cfg.Postgres.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Brokers != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}

	if err := rt.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
