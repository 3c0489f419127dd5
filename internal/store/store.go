// Package store holds the time-series sample storage. Two backends implement
// the same contract: an in-memory windowed store and a Postgres-backed store.
// Either way, samples older than the retention window are never returned by
// any read, regardless of whether physical deletion has happened yet.
package store

import (
	"context"
	"time"

	"pulsewatch/internal/models"
)

// DefaultRetention is the rolling window beyond which samples are expired.
const DefaultRetention = 24 * time.Hour

// Store is the append-only sample store. Append and PurgeOlderThan are the
// only mutators; all methods are safe for concurrent use.
type Store interface {
	// Append inserts a validated sample. It assigns the insertion sequence
	// and never fails on well-formed input (validation happens upstream).
	Append(ctx context.Context, sample *models.Sample) error

	// LatestPerMachine returns, for each machine with at least one
	// non-expired sample, that machine's most recent sample. Ties on
	// RecordedAt go to the later insert. Results are sorted by machine ID
	// so dashboard rendering stays deterministic.
	LatestPerMachine(ctx context.Context) ([]models.Sample, error)

	// LatestFor returns the most recent non-expired sample for one machine,
	// or nil if the machine is unknown. It ignores any query window; only
	// the retention cutoff applies.
	LatestFor(ctx context.Context, machineID string) (*models.Sample, error)

	// HistoryFor returns the machine's samples recorded within the window,
	// ascending by RecordedAt. Unknown machines yield an empty slice.
	HistoryFor(ctx context.Context, machineID string, window time.Duration) ([]models.Sample, error)

	// AllWithinWindow returns every sample recorded within the window,
	// across all machines.
	AllWithinWindow(ctx context.Context, window time.Duration) ([]models.Sample, error)

	// PurgeOlderThan deletes samples recorded before now minus the window
	// and reports how many were removed. Purging an empty store returns 0.
	PurgeOlderThan(ctx context.Context, window time.Duration) (int64, error)

	Close() error
}
