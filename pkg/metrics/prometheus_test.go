package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordSnapshotsIngested("coingecko-memes", 3)
	r.RecordSnapshotsIngested("coingecko-memes", 2)
	r.RecordBenchmarkSkipped("XYZ")
	r.RecordError("fetch")

	assert.Equal(t, 5.0, testutil.ToFloat64(r.snapshotsIngested.WithLabelValues("coingecko-memes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.benchmarksSkipped.WithLabelValues("XYZ")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("fetch")))
}
