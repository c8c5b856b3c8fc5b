// Package metrics exposes Prometheus instrumentation for the sync core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	deliveryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carequeue_delivery_attempts_total",
		Help: "Total number of delivery attempts against the backend",
	})
	deliverySuccesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carequeue_delivery_successes_total",
		Help: "Total number of successful deliveries",
	})
	deliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carequeue_delivery_failures_total",
		Help: "Total number of failed delivery attempts by kind",
	}, []string{"kind"})
	pendingRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "carequeue_pending_requests",
		Help: "Number of locally queued requests awaiting delivery",
	})
	syncCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "carequeue_sync_cycle_seconds",
		Help:    "Duration of background sync cycles",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAttempt counts one delivery attempt.
func RecordAttempt() {
	deliveryAttempts.Inc()
}

// RecordSuccess counts one successful delivery.
func RecordSuccess() {
	deliverySuccesses.Inc()
}

// RecordFailure counts one failed delivery attempt. kind is "network" for
// transport-level failures or "rejected" for definitive backend rejections.
func RecordFailure(kind string) {
	deliveryFailures.WithLabelValues(kind).Inc()
}

// SetPending updates the pending-request gauge.
func SetPending(n int) {
	pendingRequests.Set(float64(n))
}

// ObserveSyncCycle records the duration of one sync cycle in seconds.
func ObserveSyncCycle(seconds float64) {
	syncCycleDuration.Observe(seconds)
}
