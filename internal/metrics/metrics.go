package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "web_order_service"

type Metrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	SweptOrders   prometheus.Counter
	SweepFailures prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the service collectors with reg. Pass
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route", "method"})
	swept := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_expired_total",
		Help:      "Orders deleted by the expiry sweep.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_failures_total",
		Help:      "Expiry sweeps that failed.",
	})

	reg.MustRegister(requests, latency, swept, failures)
	return &Metrics{
		Requests:      requests,
		LatencyMS:     latency,
		SweptOrders:   swept,
		SweepFailures: failures,
		gatherer:      gatherer,
	}
}

func (m *Metrics) SweepCompleted(deleted int64) {
	m.SweptOrders.Add(float64(deleted))
}

func (m *Metrics) SweepFailed() {
	m.SweepFailures.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
