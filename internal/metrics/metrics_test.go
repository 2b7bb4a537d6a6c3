package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsByLabel(t *testing.T) {
	t.Parallel()

	r := NewRecorder(prometheus.NewRegistry())
	r.Published("europe", "population_weighted", "main")
	r.Published("europe", "population_weighted", "main")
	r.Published("europe", "population_weighted", "extrapolated")
	r.Skipped("eurozone", "insufficient coverage")
	r.Failed("europe", "upsert")
	r.Observe("europe", 150*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(r.published.WithLabelValues("europe", "population_weighted", "main")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.published.WithLabelValues("europe", "population_weighted", "extrapolated")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.skipped.WithLabelValues("eurozone", "insufficient coverage")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.failures.WithLabelValues("europe", "upsert")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	assert.NotPanics(t, func() {
		r.Published("europe", "simple_sum", "main")
		r.Skipped("europe", "too few contributors")
		r.Failed("europe", "delete")
		r.Observe("europe", time.Second)
	})
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	NewRecorder(registry).Published("europe", "simple_sum", "main")

	path := filepath.Join(t.TempDir(), "aggregator.prom")
	require.NoError(t, WriteTextfile(path, registry))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `eurometrics_aggregation_years_published_total{method="simple_sum",pass="main",target="europe"} 1`)

	assert.NoError(t, WriteTextfile("", registry))
}
