// Package query composes read-only views over the sample store for the
// polling dashboard. Queries never mutate and are cheap enough to run on
// every poll; the store bounds them at the retention window.
package query

import (
	"context"
	"math"
	"time"

	"pulsewatch/internal/models"
	"pulsewatch/internal/store"
)

// Engine answers the dashboard's three reads: all-machines view, single
// machine view, and machine discovery.
type Engine struct {
	store store.Store
}

func New(st store.Store) *Engine {
	return &Engine{store: st}
}

// AllMachinesView is the fleet-wide dashboard payload.
type AllMachinesView struct {
	Latest   []models.Sample `json:"latest"`
	Overview models.Overview `json:"overview"`
}

// MachineView is the single-machine dashboard payload. Latest is the most
// recent non-expired sample regardless of the requested window; Historical
// is window-limited.
type MachineView struct {
	Latest     *models.Sample  `json:"latest"`
	Historical []models.Sample `json:"historical"`
}

// AllMachines returns the latest sample per machine plus the overview
// averaged across every sample inside the window.
func (e *Engine) AllMachines(ctx context.Context, window time.Duration) (*AllMachinesView, error) {
	latest, err := e.store.LatestPerMachine(ctx)
	if err != nil {
		return nil, err
	}
	inWindow, err := e.store.AllWithinWindow(ctx, window)
	if err != nil {
		return nil, err
	}
	return &AllMachinesView{
		Latest:   latest,
		Overview: buildOverview(inWindow),
	}, nil
}

// Machine returns the latest sample and windowed history for one machine.
func (e *Engine) Machine(ctx context.Context, machineID string, window time.Duration) (*MachineView, error) {
	latest, err := e.store.LatestFor(ctx, machineID)
	if err != nil {
		return nil, err
	}
	historical, err := e.store.HistoryFor(ctx, machineID, window)
	if err != nil {
		return nil, err
	}
	return &MachineView{Latest: latest, Historical: historical}, nil
}

// ListMachines returns the latest sample per machine, for clients that only
// need discovery.
func (e *Engine) ListMachines(ctx context.Context) ([]models.Sample, error) {
	return e.store.LatestPerMachine(ctx)
}

// buildOverview computes the cross-machine arithmetic means. An empty window
// yields zeros rather than a division failure.
func buildOverview(samples []models.Sample) models.Overview {
	if len(samples) == 0 {
		return models.Overview{}
	}

	var cpu, ram, disk float64
	machines := make(map[string]struct{})
	for _, s := range samples {
		cpu += s.CPUPercent
		ram += s.RAMPercent
		disk += s.DiskPercent
		machines[s.MachineID] = struct{}{}
	}

	n := float64(len(samples))
	return models.Overview{
		AvgCPU:        round2(cpu / n),
		AvgRAM:        round2(ram / n),
		AvgDisk:       round2(disk / n),
		TotalMachines: len(machines),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
