package models

import (
	"time"

	"github.com/google/uuid"
)

// Sample is one observation of a machine's resource usage. Samples are
// immutable once stored; they are only ever inserted and, once older than the
// retention window, removed.
type Sample struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MachineID     string    `gorm:"not null;index" json:"machineId"`
	CPUPercent    float64   `json:"cpuPercent"`
	RAMPercent    float64   `json:"ramPercent"`
	DiskPercent   float64   `json:"diskPercent"`
	OSDescription string    `json:"osDescription"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
	RecordedAt    time.Time `gorm:"not null;index" json:"timestamp"`

	// Seq is the store-assigned insertion sequence. Two samples from the same
	// machine with identical timestamps are ordered by Seq: the later insert
	// wins. Not part of the wire contract.
	Seq int64 `gorm:"autoIncrement;uniqueIndex" json:"-"`
}

// Overview holds cross-machine averages computed over all in-window samples.
// It is derived on demand and never persisted.
type Overview struct {
	AvgCPU        float64 `json:"avgCpu"`
	AvgRAM        float64 `json:"avgRam"`
	AvgDisk       float64 `json:"avgDisk"`
	TotalMachines int     `json:"totalMachines"`
}
