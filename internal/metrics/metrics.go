// Package metrics provides Prometheus metrics for aggregation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eurometrics"

// Recorder is safe to use as a nil pointer, in which case nothing is recorded.
type Recorder struct {
	published *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		published: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "aggregation",
				Name:      "years_published_total",
				Help:      "Total number of aggregate years written",
			},
			[]string{"target", "method", "pass"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "aggregation",
				Name:      "years_skipped_total",
				Help:      "Total number of aggregate years skipped by reason",
			},
			[]string{"target", "reason"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "aggregation",
				Name:      "write_failures_total",
				Help:      "Total number of failed aggregate writes and deletes",
			},
			[]string{"target", "op"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "aggregation",
				Name:      "target_duration_seconds",
				Help:      "Duration of one metric/target aggregation in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"target"},
		),
	}
}

func (r *Recorder) Published(target, method, pass string) {
	if r == nil {
		return
	}
	r.published.WithLabelValues(target, method, pass).Inc()
}

func (r *Recorder) Skipped(target, reason string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(target, reason).Inc()
}

func (r *Recorder) Failed(target, op string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(target, op).Inc()
}

func (r *Recorder) Observe(target string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(target).Observe(elapsed.Seconds())
}

// WriteTextfile dumps every metric of gatherer in the node-exporter textfile
// format, for batch runs without a scrape endpoint.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, gatherer)
}
