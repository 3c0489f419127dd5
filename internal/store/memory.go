package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pulsewatch/internal/models"
)

// MemoryStore keeps samples in per-machine insertion-ordered slices guarded
// by a read-write mutex. Every read filters at the retention cutoff, so an
// expired sample is invisible even before the sweeper physically removes it.
type MemoryStore struct {
	mu        sync.RWMutex
	retention time.Duration
	seq       int64
	samples   map[string][]models.Sample

	now func() time.Time
}

// NewMemoryStore creates an in-memory store with the given retention window.
// A non-positive retention falls back to the default 24h.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		retention: retention,
		samples:   make(map[string][]models.Sample),
		now:       time.Now,
	}
}

func (m *MemoryStore) Append(_ context.Context, sample *models.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	sample.Seq = m.seq
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	m.samples[sample.MachineID] = append(m.samples[sample.MachineID], *sample)
	return nil
}

func (m *MemoryStore) LatestPerMachine(ctx context.Context) ([]models.Sample, error) {
	live, err := m.AllWithinWindow(ctx, m.retention)
	if err != nil {
		return nil, err
	}
	return LatestByMachine(live), nil
}

func (m *MemoryStore) LatestFor(_ context.Context, machineID string) (*models.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := m.now().Add(-m.retention)
	var latest *models.Sample
	for i := range m.samples[machineID] {
		s := m.samples[machineID][i]
		if s.RecordedAt.Before(cutoff) {
			continue
		}
		if latest == nil || newerThan(s, *latest) {
			copied := s
			latest = &copied
		}
	}
	return latest, nil
}

func (m *MemoryStore) HistoryFor(_ context.Context, machineID string, window time.Duration) ([]models.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := m.now().Add(-m.effectiveWindow(window))
	out := make([]models.Sample, 0)
	for _, s := range m.samples[machineID] {
		if !s.RecordedAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	sortAscending(out)
	return out, nil
}

func (m *MemoryStore) AllWithinWindow(_ context.Context, window time.Duration) ([]models.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := m.now().Add(-m.effectiveWindow(window))
	out := make([]models.Sample, 0)
	for _, series := range m.samples {
		for _, s := range series {
			if !s.RecordedAt.Before(cutoff) {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) PurgeOlderThan(_ context.Context, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-window)
	var removed int64
	for machineID, series := range m.samples {
		kept := series[:0]
		for _, s := range series {
			if s.RecordedAt.Before(cutoff) {
				removed++
			} else {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(m.samples, machineID)
		} else {
			m.samples[machineID] = kept
		}
	}
	return removed, nil
}

func (m *MemoryStore) Close() error { return nil }

// effectiveWindow caps a query window at the retention window: data past
// retention is expired even when the caller asks for more.
func (m *MemoryStore) effectiveWindow(window time.Duration) time.Duration {
	if window <= 0 || window > m.retention {
		return m.retention
	}
	return window
}
