package httpapi

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the API surface and the
// webhook delivery path. It satisfies bridge.DeliveryMetrics so sessions can
// record outcomes without importing this package.
type Metrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	delivered prometheus.Counter
	dropped   prometheus.Counter
	sessions  prometheus.GaugeFunc
}

// NewMetrics registers the instruments on reg. sessionCount feeds the live
// session gauge and is called on every scrape.
func NewMetrics(reg prometheus.Registerer, sessionCount func() int) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grambridge",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method route and status.",
		}, []string{"status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grambridge",
			Name:      "http_errors_total",
			Help:      "Failed Bot API calls, by status code.",
		}, []string{"status"}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grambridge",
			Name:      "webhook_delivered_total",
			Help:      "Updates delivered to webhook endpoints.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grambridge",
			Name:      "webhook_dropped_total",
			Help:      "Updates dropped after a failed webhook delivery.",
		}),
		sessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "grambridge",
			Name:      "sessions_active",
			Help:      "Live bot sessions.",
		}, func() float64 { return float64(sessionCount()) }),
	}
	reg.MustRegister(m.requests, m.errors, m.delivered, m.dropped, m.sessions)
	return m
}

func (m *Metrics) Request(status int) {
	m.requests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *Metrics) RequestError(status int) {
	m.errors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Delivered implements bridge.DeliveryMetrics.
func (m *Metrics) Delivered() { m.delivered.Inc() }

// Dropped implements bridge.DeliveryMetrics.
func (m *Metrics) Dropped() { m.dropped.Inc() }
