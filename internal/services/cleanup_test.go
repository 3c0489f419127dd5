package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pulsewatch/internal/models"
	"pulsewatch/internal/observability"
	"pulsewatch/internal/store"
)

func TestSweepRemovesExpiredSamples(t *testing.T) {
	st := store.NewMemoryStore(time.Hour)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	now := time.Now()
	st.Append(context.Background(), &models.Sample{MachineID: "old", OSDescription: "os", RecordedAt: now.Add(-2 * time.Hour)})
	st.Append(context.Background(), &models.Sample{MachineID: "live", OSDescription: "os", RecordedAt: now})

	sweeper := NewRetentionSweeper(st, metrics, time.Hour, time.Minute)
	sweeper.sweep()

	all, err := st.AllWithinWindow(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("all within window: %v", err)
	}
	if len(all) != 1 || all[0].MachineID != "live" {
		t.Fatalf("expected only the live sample after sweep, got %+v", all)
	}

	if got := testutil.ToFloat64(metrics.SamplesPurged); got != 1 {
		t.Fatalf("purged counter = %v, want 1", got)
	}
}

func TestSweeperStartStop(t *testing.T) {
	st := store.NewMemoryStore(time.Hour)
	sweeper := NewRetentionSweeper(st, nil, time.Hour, 10*time.Millisecond)

	sweeper.Start()
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
}
