package server

import (
	"github.com/koustreak/dbverify/internal/verifier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	LastRowCount prometheus.Gauge
}

// NewMetrics registers the run collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbverify_runs_total",
				Help: "Total number of verification runs by result (ok or error kind)",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dbverify_run_duration_seconds",
				Help:    "Duration of verification runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		LastRowCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dbverify_last_row_count",
				Help: "Number of rows returned by the last successful run",
			},
		),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.LastRowCount,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records the outcome of one run.
func (m *Metrics) Observe(r *verifier.Report) {
	m.RunDuration.Observe(r.Duration.Seconds())
	if !r.OK {
		m.RunsTotal.WithLabelValues(r.ErrorKind).Inc()
		return
	}
	m.RunsTotal.WithLabelValues("ok").Inc()
	m.LastRowCount.Set(float64(r.RowCount))
}
