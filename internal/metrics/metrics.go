// Package metrics holds the Prometheus instruments shared by the ingest and
// analysis pipelines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "popstats"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DatasetSyncs     *prometheus.CounterVec
	AnalysisRuns     *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	InvokeDuration   *prometheus.HistogramVec
	ArtifactBytes    prometheus.Gauge
	PeakYearsLastRun prometheus.Gauge
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DatasetSyncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_syncs_total",
			Help:      "Dataset sync attempts by key and outcome (stored, skipped, failed)",
		}, []string{"key", "outcome"}),
		AnalysisRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Analysis invocations by outcome",
		}, []string{"outcome"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Duration of upstream dataset fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "outcome"}),
		InvokeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoke_duration_seconds",
			Help:      "Duration of function invocations",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"function", "status"}),
		ArtifactBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chart_artifact_bytes",
			Help:      "Size of the last published chart document",
		}),
		PeakYearsLastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_years_last_run",
			Help:      "Number of series in the last peak-year table",
		}),
	}
}

// NewUnregistered creates metrics on a private registry
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveSync counts one dataset sync outcome
func (m *Metrics) ObserveSync(key, outcome string) {
	if m == nil {
		return
	}
	m.DatasetSyncs.WithLabelValues(key, outcome).Inc()
}

// ObserveFetch records an upstream fetch
func (m *Metrics) ObserveFetch(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchDuration.WithLabelValues(source, outcome).Observe(d.Seconds())
}

// ObserveAnalysis counts one analysis outcome
func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.AnalysisRuns.WithLabelValues(outcome).Inc()
}

// ObserveInvoke records the duration of one invocation
func (m *Metrics) ObserveInvoke(function string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.InvokeDuration.WithLabelValues(function, statusClass(statusCode)).Observe(d.Seconds())
}

// SetArtifact records the published chart size and peak-table length
func (m *Metrics) SetArtifact(size, peaks int) {
	if m == nil {
		return
	}
	m.ArtifactBytes.Set(float64(size))
	m.PeakYearsLastRun.Set(float64(peaks))
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
