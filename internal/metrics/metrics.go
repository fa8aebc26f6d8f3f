// Package metrics holds the Prometheus collectors the server exports on
// /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextstop_backend_requests_total",
		Help: "Backend REST calls by operation and outcome.",
	}, []string{"op", "outcome"})
	backendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nextstop_backend_request_duration_seconds",
		Help:    "Latency of backend REST calls.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op"})
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextstop_http_requests_total",
		Help: "Requests served, by method and status code.",
	}, []string{"method", "status"})
	payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextstop_payments_total",
		Help: "Payment attempts by outcome.",
	}, []string{"outcome"})
	flowsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nextstop_flows_swept_total",
		Help: "Expired booking flows removed by the sweep job.",
	})
)

// ObserveBackend records one backend call. outcome is "ok" or the client
// error kind.
func ObserveBackend(op, outcome string, d time.Duration) {
	backendRequests.WithLabelValues(op, outcome).Inc()
	backendDuration.WithLabelValues(op).Observe(d.Seconds())
}

func ObserveHTTP(method string, status int) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// ObservePayment counts a payment as "confirmed", "requires_action" or
// "failed".
func ObservePayment(outcome string) {
	payments.WithLabelValues(outcome).Inc()
}

func AddFlowsSwept(n int) {
	flowsSwept.Add(float64(n))
}
