package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the booking service metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Operations         *prometheus.CounterVec
	OperationLatency   *prometheus.HistogramVec
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "operations_total",
			Help:      "Total number of booking operations by outcome",
		}, []string{"operation", "outcome"}),
		OperationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "operation_duration_seconds",
			Help:      "Duration of booking operations including the store round trip",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(m.Operations, m.OperationLatency, m.HTTPRequests, m.HTTPRequestLatency)
	return m
}

func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
