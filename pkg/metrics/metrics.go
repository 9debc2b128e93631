// Package metrics provides Prometheus metrics for the recording pipeline and
// the note store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "convohealth"

type Metrics struct {
	// Recording sessions
	SessionsStarted   prometheus.Counter
	SessionsActive    prometheus.Gauge
	SessionsCompleted prometheus.Counter
	SessionsFailed    *prometheus.CounterVec
	RecordedSeconds   prometheus.Histogram
	AudioBytes        prometheus.Counter

	// Pipeline stages
	StageLatency *prometheus.HistogramVec
	Fallbacks    *prometheus.CounterVec

	// Notes
	NotesSaved   prometheus.Counter
	NotesDeleted prometheus.Counter
	NotesPurged  prometheus.Counter

	// Usage
	UsageNotices *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_sessions_started_total",
			Help:      "Recording sessions that acquired the capture device",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recording_sessions_active",
			Help:      "Sessions currently recording, paused or processing",
		}),
		SessionsCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_sessions_completed_total",
			Help:      "Sessions whose pipeline reached Complete",
		}),
		SessionsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_sessions_failed_total",
			Help:      "Sessions that never started or were abandoned",
		}, []string{"reason"}),
		RecordedSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_duration_seconds",
			Help:      "Final elapsed duration of stopped sessions",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		AudioBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Audio bytes uploaded by clients",
		}),
		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Latency of each processing stage",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"stage", "provider"}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_fallbacks_total",
			Help:      "Stages served by a fallback provider",
		}, []string{"stage", "reason"}),
		NotesSaved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soap_notes_saved_total",
			Help:      "SOAP notes persisted",
		}),
		NotesDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soap_notes_deleted_total",
			Help:      "SOAP notes deleted by their owner",
		}),
		NotesPurged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soap_notes_purged_total",
			Help:      "Expired SOAP notes removed by the sweep",
		}),
		UsageNotices: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_notices_total",
			Help:      "Trial usage notices raised",
		}, []string{"level"}),
	}
}
