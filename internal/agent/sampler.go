package agent

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"
)

// Reading is one sampled observation, shaped for POST /systemdata.
type Reading struct {
	MachineID     string  `json:"machineId"`
	CPUPercent    float64 `json:"cpuPercent"`
	RAMPercent    float64 `json:"ramPercent"`
	DiskPercent   float64 `json:"diskPercent"`
	OSDescription string  `json:"osDescription"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
}

// Sampler reads CPU, memory, and disk utilization plus OS/uptime metadata.
type Sampler struct {
	machineID string
	diskPath  string
}

func NewSampler(machineID string) *Sampler {
	diskPath := "/"
	if runtime.GOOS == "windows" {
		diskPath = `C:\`
	}
	return &Sampler{machineID: machineID, diskPath: diskPath}
}

// Sample gathers one reading. The four gopsutil reads run concurrently; the
// CPU read blocks for a second to measure utilization.
func (s *Sampler) Sample(ctx context.Context) (*Reading, error) {
	reading := &Reading{MachineID: s.machineID}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pcts, err := cpu.PercentWithContext(ctx, time.Second, false)
		if err != nil {
			return fmt.Errorf("cpu: %w", err)
		}
		if len(pcts) > 0 {
			reading.CPUPercent = clampPercent(pcts[0])
		}
		return nil
	})

	g.Go(func() error {
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return fmt.Errorf("memory: %w", err)
		}
		reading.RAMPercent = clampPercent(vm.UsedPercent)
		return nil
	})

	g.Go(func() error {
		usage, err := disk.UsageWithContext(ctx, s.diskPath)
		if err != nil {
			return fmt.Errorf("disk: %w", err)
		}
		reading.DiskPercent = clampPercent(usage.UsedPercent)
		return nil
	})

	g.Go(func() error {
		info, err := host.InfoWithContext(ctx)
		if err != nil {
			return fmt.Errorf("host: %w", err)
		}
		reading.OSDescription = fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)
		reading.UptimeSeconds = int64(info.Uptime)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reading, nil
}

// clampPercent bounds a utilization value to [0,100]. gopsutil can report
// slightly out-of-range values on some platforms, and the collector rejects
// anything outside the range.
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
