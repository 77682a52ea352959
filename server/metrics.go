package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks enrichment request outcomes.
type Metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the server metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospect",
			Subsystem: "enrich",
			Name:      "requests_total",
			Help:      "Enrichment requests by HTTP status code.",
		}, []string{"code"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prospect",
			Subsystem: "enrich",
			Name:      "request_duration_seconds",
			Help:      "End-to-end enrichment request duration.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 20, 30},
		}),
	}
}

// Observe records one completed request.
func (m *Metrics) Observe(status int, elapsed time.Duration) {
	m.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	m.duration.Observe(elapsed.Seconds())
}
