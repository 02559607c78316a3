package inventory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK         = "ok"
	resultError      = "error"
	resultSuperseded = "superseded"
)

// Metrics holds the controller's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	mutations       *prometheus.CounterVec
	schemaError     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gudang",
			Name:      "refreshes_total",
			Help:      "Full snapshot refreshes by result.",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gudang",
			Name:      "refresh_duration_seconds",
			Help:      "Time taken by a full snapshot refresh.",
			Buckets:   prometheus.DefBuckets,
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gudang",
			Name:      "mutations_total",
			Help:      "Repository writes by collection, operation and result.",
		}, []string{"collection", "op", "result"}),
		schemaError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gudang",
			Name:      "schema_error",
			Help:      "1 while the backend schema is reported missing or outdated.",
		}),
	}
	reg.MustRegister(m.refreshes, m.refreshDuration, m.mutations, m.schemaError)
	return m
}

func (m *Metrics) observeRefresh(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

func (m *Metrics) observeMutation(collection, op string, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.mutations.WithLabelValues(collection, op, result).Inc()
}

func (m *Metrics) setSchemaError(on bool) {
	if m == nil {
		return
	}
	if on {
		m.schemaError.Set(1)
	} else {
		m.schemaError.Set(0)
	}
}
