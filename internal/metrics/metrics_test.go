package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSync("population_data.json", "stored")
	m.ObserveSync("population_data.json", "skipped")
	m.ObserveSync("population_data.json", "skipped")
	m.ObserveAnalysis("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetSyncs.WithLabelValues("population_data.json", "stored")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DatasetSyncs.WithLabelValues("population_data.json", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysisRuns.WithLabelValues("success")))
}

func TestMetrics_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFetch("bls-series", 20*time.Millisecond, nil)
	m.ObserveFetch("bls-series", 10*time.Millisecond, errors.New("boom"))
	m.ObserveInvoke("ingest", 200, time.Second)
	m.ObserveInvoke("analysis", 500, time.Second)

	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchDuration))
	assert.Equal(t, 2, testutil.CollectAndCount(m.InvokeDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "popstats_upstream_fetch_duration_seconds")
	assert.Contains(t, names, "popstats_invoke_duration_seconds")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSync("k", "stored")
		m.ObserveFetch("s", time.Second, nil)
		m.ObserveAnalysis("success")
		m.ObserveInvoke("ingest", 200, time.Second)
		m.SetArtifact(10, 2)
	})
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(500))
}
