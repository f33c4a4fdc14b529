package prometrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/storefront-labs/checkout/internal/observability"
)

// Metrics registers the application's metric vectors on a prometheus
// registerer and serves them behind the observability Metrics port.
type Metrics struct {
	counters   map[observability.MetricKey]*prometheus.CounterVec
	histograms map[observability.MetricKey]*prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		counters:   make(map[observability.MetricKey]*prometheus.CounterVec),
		histograms: make(map[observability.MetricKey]*prometheus.HistogramVec),
	}

	m.counters[observability.MUsecaseRequests] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: string(observability.MUsecaseRequests),
			Help: "Total number of use case invocations.",
		},
		[]string{"use_case", "outcome"},
	)
	m.histograms[observability.MUsecaseDuration] = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    string(observability.MUsecaseDuration),
			Help:    "Duration of use case execution in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"use_case"},
	)
	m.counters[observability.MHTTPRequests] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: string(observability.MHTTPRequests),
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	m.histograms[observability.MHTTPRequestDuration] = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    string(observability.MHTTPRequestDuration),
			Help:    "Duration of HTTP request handling in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	m.counters[observability.MAuditPublishFailed] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: string(observability.MAuditPublishFailed),
			Help: "Count of audit event publish failures.",
		},
		[]string{"event"},
	)

	for _, c := range m.counters {
		reg.MustRegister(c)
	}
	for _, h := range m.histograms {
		reg.MustRegister(h)
	}

	return m
}

func (m *Metrics) Counter(name observability.MetricKey) observability.Counter {
	if v, ok := m.counters[name]; ok {
		return &counter{v: v}
	}
	return observability.NopCounter()
}

func (m *Metrics) Histogram(name observability.MetricKey) observability.Histogram {
	if v, ok := m.histograms[name]; ok {
		return &histogram{v: v}
	}
	return observability.NopHistogram()
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(val float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(val)
}

func labelMap(labels []observability.Label) prometheus.Labels {
	out := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		out[l.Key] = l.Value
	}
	return out
}
