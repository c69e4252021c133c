// v0
// cmd/analytics/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"projetbda/analytics/internal/app"
	"projetbda/analytics/internal/config"
)

func main() {
	bootstrap := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("config_load_failed", slog.Any("err", err))
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		bootstrap.Error("app_init_failed", slog.Any("err", err))
		os.Exit(1)
	}

	logger := application.Logger()
	logger.Info("service_boot",
		slog.String("listen_address", cfg.ListenAddress),
		slog.String("log_path", cfg.LogFilePath),
		slog.String("config_path", cfg.ConfigPath),
		slog.String("planner_url", cfg.PlannerBaseURL),
		slog.Duration("cache_ttl", cfg.CacheTTL),
		slog.Bool("events_enabled", cfg.EventsEnabled),
		slog.String("plan_events_topic", cfg.PlanEventsTopic),
		slog.String("kafka_brokers", strings.Join(cfg.KafkaBrokers, ",")),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := application.Run(ctx)
	stop()

	if cerr := application.Close(); cerr != nil {
		bootstrap.Error("app_close_failed", slog.Any("err", cerr))
	}
	if runErr != nil {
		logger.Error("service_terminated", slog.Any("err", runErr))
		os.Exit(1)
	}
	logger.Info("service_stopped")
}
