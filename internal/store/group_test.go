package store

import (
	"testing"
	"time"

	"pulsewatch/internal/models"
)

func TestLatestByMachine(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	samples := []models.Sample{
		{MachineID: "b", RecordedAt: base.Add(1 * time.Minute), Seq: 1},
		{MachineID: "a", RecordedAt: base.Add(3 * time.Minute), Seq: 2},
		{MachineID: "b", RecordedAt: base.Add(5 * time.Minute), Seq: 3},
		{MachineID: "a", RecordedAt: base.Add(2 * time.Minute), Seq: 4},
	}

	latest := LatestByMachine(samples)
	if len(latest) != 2 {
		t.Fatalf("expected 2 machines, got %d", len(latest))
	}
	if latest[0].MachineID != "a" || latest[1].MachineID != "b" {
		t.Fatalf("output not sorted by machine ID: %v, %v", latest[0].MachineID, latest[1].MachineID)
	}
	if latest[0].Seq != 2 {
		t.Fatalf("machine a: picked seq %d, want 2 (max RecordedAt)", latest[0].Seq)
	}
	if latest[1].Seq != 3 {
		t.Fatalf("machine b: picked seq %d, want 3", latest[1].Seq)
	}
}

func TestLatestByMachineTieBreak(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	samples := []models.Sample{
		{MachineID: "pc", RecordedAt: ts, Seq: 10},
		{MachineID: "pc", RecordedAt: ts, Seq: 11},
	}

	latest := LatestByMachine(samples)
	if len(latest) != 1 || latest[0].Seq != 11 {
		t.Fatalf("identical timestamps: want seq 11 (later insert), got %+v", latest)
	}
}

func TestLatestByMachineEmpty(t *testing.T) {
	if out := LatestByMachine(nil); len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
}
