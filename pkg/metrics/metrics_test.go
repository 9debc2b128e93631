package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Fallbacks.WithLabelValues("transcription", "empty_audio").Inc()
	m.NotesSaved.Add(2)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Fallbacks.WithLabelValues("transcription", "empty_audio")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.NotesSaved))

	count, err := testutil.GatherAndCount(reg, "convohealth_pipeline_fallbacks_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
