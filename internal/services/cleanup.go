package services

import (
	"context"
	"log/slog"
	"time"

	"pulsewatch/internal/observability"
	"pulsewatch/internal/store"
)

// RetentionSweeper periodically deletes samples older than the retention
// window. Reads are already filtered at the cutoff, so the sweep only
// reclaims memory/rows; correctness does not depend on its timing.
type RetentionSweeper struct {
	store     store.Store
	metrics   *observability.Metrics
	retention time.Duration
	interval  time.Duration
	stop      chan struct{}
}

func NewRetentionSweeper(st store.Store, metrics *observability.Metrics, retention, interval time.Duration) *RetentionSweeper {
	if retention <= 0 {
		retention = store.DefaultRetention
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &RetentionSweeper{
		store:     st,
		metrics:   metrics,
		retention: retention,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

func (rs *RetentionSweeper) Start() {
	go rs.loop()
	slog.Info("Retention sweeper started", "retention", rs.retention, "interval", rs.interval)
}

func (rs *RetentionSweeper) Stop() {
	close(rs.stop)
	slog.Info("Retention sweeper stopped")
}

func (rs *RetentionSweeper) loop() {
	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := rs.store.PurgeOlderThan(ctx, rs.retention)
	if err != nil {
		slog.Error("Retention sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("Retention sweep removed expired samples", "count", removed)
	}
	if rs.metrics != nil {
		rs.metrics.SamplesPurged.Add(float64(removed))
	}
}
