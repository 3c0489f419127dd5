package agent

import (
	"context"
	"log/slog"
	"time"
)

// Run drives the sampling loop: sample, send, sleep. A failed sample or a
// dropped send never stops the loop; only context cancellation or the
// sender's fail-stop signal does.
func Run(ctx context.Context, cfg *Config, sampler *Sampler, sender *Sender) error {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	// Initial sample immediately, then on every tick.
	if err := sampleAndSend(ctx, sampler, sender); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sampleAndSend(ctx, sampler, sender); err != nil {
				return err
			}
		}
	}
}

func sampleAndSend(ctx context.Context, sampler *Sampler, sender *Sender) error {
	reading, err := sampler.Sample(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("Sampling failed", "error", err)
		return nil
	}

	err = sender.Send(ctx, reading)
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return err
}
