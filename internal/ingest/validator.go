// Package ingest validates candidate samples before they reach the store.
// It is the sole gate enforcing the data model's range constraints: no
// invalid sample is ever appended.
package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pulsewatch/internal/models"
)

// Reason classifies why a candidate sample was rejected.
type Reason string

const (
	ReasonMissingField Reason = "MissingField"
	ReasonOutOfRange   Reason = "OutOfRange"
)

// RejectionError describes a rejected candidate sample.
type RejectionError struct {
	Reason Reason
	Field  string
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s %s", e.Reason, e.Field, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Field)
}

// Payload is a candidate sample as received on the wire. Fields are pointers
// so an absent JSON key is distinguishable from a zero value.
type Payload struct {
	MachineID     *string  `json:"machineId"`
	CPUPercent    *float64 `json:"cpuPercent"`
	RAMPercent    *float64 `json:"ramPercent"`
	DiskPercent   *float64 `json:"diskPercent"`
	OSDescription *string  `json:"osDescription"`
	UptimeSeconds *int64   `json:"uptimeSeconds"`
}

// Validator turns payloads into fully-formed samples, stamping the ingestion
// timestamp. The clock is injectable for tests.
type Validator struct {
	now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// Validate checks the payload against the required-field and range rules and,
// on success, returns a sample stamped with the current time. It has no other
// side effects.
func (v *Validator) Validate(p *Payload) (*models.Sample, error) {
	if p.MachineID == nil || *p.MachineID == "" {
		return nil, &RejectionError{Reason: ReasonMissingField, Field: "machineId"}
	}
	if p.OSDescription == nil || *p.OSDescription == "" {
		return nil, &RejectionError{Reason: ReasonMissingField, Field: "osDescription"}
	}
	if p.UptimeSeconds == nil {
		return nil, &RejectionError{Reason: ReasonMissingField, Field: "uptimeSeconds"}
	}

	percents := []struct {
		name  string
		value *float64
	}{
		{"cpuPercent", p.CPUPercent},
		{"ramPercent", p.RAMPercent},
		{"diskPercent", p.DiskPercent},
	}
	for _, pct := range percents {
		if pct.value == nil {
			return nil, &RejectionError{Reason: ReasonMissingField, Field: pct.name}
		}
		if *pct.value < 0 || *pct.value > 100 {
			return nil, &RejectionError{
				Reason: ReasonOutOfRange,
				Field:  pct.name,
				Detail: fmt.Sprintf("%v not in [0,100]", *pct.value),
			}
		}
	}

	if *p.UptimeSeconds < 0 {
		return nil, &RejectionError{
			Reason: ReasonOutOfRange,
			Field:  "uptimeSeconds",
			Detail: fmt.Sprintf("%d is negative", *p.UptimeSeconds),
		}
	}

	return &models.Sample{
		ID:            uuid.New(),
		MachineID:     *p.MachineID,
		CPUPercent:    *p.CPUPercent,
		RAMPercent:    *p.RAMPercent,
		DiskPercent:   *p.DiskPercent,
		OSDescription: *p.OSDescription,
		UptimeSeconds: *p.UptimeSeconds,
		RecordedAt:    v.now(),
	}, nil
}
