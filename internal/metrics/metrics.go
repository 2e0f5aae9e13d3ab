package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "image_resizer"

type Metrics struct {
	Uploads     *prometheus.CounterVec
	Events      *prometheus.CounterVec
	Exports     *prometheus.CounterVec
	ExportBytes prometheus.Histogram
}

func InitializeMetrics(registry prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Number of uploaded images by outcome",
		}, []string{"outcome"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Number of resize events by type and whether they changed the target",
		}, []string{"type", "changed"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Number of exports by cache result",
		}, []string{"cache"}),
		ExportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_bytes",
			Help:      "Size of encoded exports",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 8),
		}),
	}

	registry.MustRegister(metrics.Uploads)
	registry.MustRegister(metrics.Events)
	registry.MustRegister(metrics.Exports)
	registry.MustRegister(metrics.ExportBytes)

	return metrics
}

func (m *Metrics) Upload(outcome string) {
	m.Uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Event(kind string, changed bool) {
	label := "false"
	if changed {
		label = "true"
	}
	m.Events.WithLabelValues(kind, label).Inc()
}

func (m *Metrics) Export(cacheHit bool, size int) {
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.Exports.WithLabelValues(label).Inc()
	m.ExportBytes.Observe(float64(size))
}
