package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

const (
	metricsNamespace = "fluentecs"

	// NoApp is the app label of documents that weren't dispatched to a converter.
	NoApp = "none"
)

// Metrics counts converted documents by application and event kind.
type Metrics struct {
	Documents *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "documents",
				Name:      "converted_total",
				Help:      "Total number of converted documents",
			},
			[]string{"app", "kind"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "documents",
				Name:      "conversion_duration_seconds",
				Help:      "Document conversion duration in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"app"},
		),
	}
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Documents, m.Duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observe(app, kind string, took time.Duration) {
	if m == nil {
		return
	}
	if app == "" {
		app = NoApp
	}
	m.Documents.WithLabelValues(app, kind).Inc()
	m.Duration.WithLabelValues(app).Observe(took.Seconds())
}
