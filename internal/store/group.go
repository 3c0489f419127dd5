package store

import (
	"sort"

	"pulsewatch/internal/models"
)

// LatestByMachine reduces a set of samples to the most recent one per
// machine. The winner per machine has the maximum RecordedAt; identical
// timestamps are broken by insertion sequence, later insert wins. Output is
// sorted by machine ID. Both backends share this reduction so grouping
// semantics cannot drift between them.
func LatestByMachine(samples []models.Sample) []models.Sample {
	latest := make(map[string]models.Sample, len(samples))
	for _, s := range samples {
		cur, ok := latest[s.MachineID]
		if !ok || newerThan(s, cur) {
			latest[s.MachineID] = s
		}
	}

	out := make([]models.Sample, 0, len(latest))
	for _, s := range latest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MachineID < out[j].MachineID })
	return out
}

// newerThan reports whether a should replace b as a machine's latest sample.
func newerThan(a, b models.Sample) bool {
	if !a.RecordedAt.Equal(b.RecordedAt) {
		return a.RecordedAt.After(b.RecordedAt)
	}
	return a.Seq >= b.Seq
}

// sortAscending orders samples by RecordedAt, then insertion sequence.
// History reads return data in this order.
func sortAscending(samples []models.Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		if !samples[i].RecordedAt.Equal(samples[j].RecordedAt) {
			return samples[i].RecordedAt.Before(samples[j].RecordedAt)
		}
		return samples[i].Seq < samples[j].Seq
	})
}
