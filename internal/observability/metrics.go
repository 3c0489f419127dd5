// Package observability holds the collector's Prometheus instrumentation.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ingestion and retention activity. All collectors are
// registered at construction.
type Metrics struct {
	SamplesIngested prometheus.Counter
	SamplesRejected *prometheus.CounterVec
	SamplesPurged   prometheus.Counter
}

// NewMetrics builds and registers the collector metrics. A nil registerer
// uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		SamplesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsewatch_samples_ingested_total",
			Help: "Samples accepted by the validator and appended to the store.",
		}),
		SamplesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewatch_samples_rejected_total",
			Help: "Candidate samples rejected at ingestion, by reason.",
		}, []string{"reason"}),
		SamplesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsewatch_samples_purged_total",
			Help: "Samples removed by retention sweeps and operator purges.",
		}),
	}

	reg.MustRegister(m.SamplesIngested, m.SamplesRejected, m.SamplesPurged)
	return m
}
