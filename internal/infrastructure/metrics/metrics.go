// Package metrics exports instruction and feed sync counters to Prometheus.
package metrics

import (
	"time"

	"fxconvert-service/internal/application"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fxconvert"

type Recorder struct {
	instructions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	feedSyncs    *prometheus.CounterVec
}

var _ application.Recorder = (*Recorder)(nil)

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		instructions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_processed_total",
			Help:      "Submitted instructions by kind and outcome code.",
		}, []string{"instruction", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "instruction_duration_seconds",
			Help:      "Time spent processing one instruction.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"instruction"}),
		feedSyncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_sync_total",
			Help:      "Price feed refreshes by outcome.",
		}, []string{"outcome"}),
	}
}

func (r *Recorder) InstructionProcessed(kind, outcome string, took time.Duration) {
	r.instructions.WithLabelValues(kind, outcome).Inc()
	r.duration.WithLabelValues(kind).Observe(took.Seconds())
}

func (r *Recorder) FeedSynced(outcome string) {
	r.feedSyncs.WithLabelValues(outcome).Inc()
}
