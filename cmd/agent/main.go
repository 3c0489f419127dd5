package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pulsewatch/internal/agent"
)

func main() {
	cfg := agent.LoadConfig()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("Starting pulsewatch agent",
		"server", cfg.ServerURL,
		"machine", cfg.MachineID,
		"interval", cfg.Interval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sampler := agent.NewSampler(cfg.MachineID)
	sender := agent.NewSender(cfg)

	if err := agent.Run(ctx, cfg, sampler, sender); err != nil {
		if errors.Is(err, agent.ErrOffline) {
			slog.Error("Collector unreachable for too long, terminating", "max_offline", cfg.MaxOffline)
			os.Exit(1)
		}
		slog.Error("Agent stopped", "error", err)
		os.Exit(1)
	}

	slog.Info("Agent shut down")
}
