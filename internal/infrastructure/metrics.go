package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservas",
		Subsystem: "webhook",
		Name:      "updates_total",
		Help:      "Inbound updates by tenant and conversation outcome.",
	}, []string{"tenant", "outcome"})

	updateLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reservas",
		Subsystem: "webhook",
		Name:      "commit_latency_seconds",
		Help:      "Time spent loading, deciding and committing a session.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"tenant"})

	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservas",
		Subsystem: "dispatch",
		Name:      "actions_total",
		Help:      "Outbound actions by kind and result (sent, failed, dropped, skipped).",
	}, []string{"kind", "result"})
)

// RecordUpdate counts one processed update.
func RecordUpdate(tenant, outcome string, latency time.Duration) {
	updatesTotal.With(prometheus.Labels{"tenant": tenant, "outcome": outcome}).Inc()
	if latency > 0 {
		updateLatency.With(prometheus.Labels{"tenant": tenant}).Observe(latency.Seconds())
	}
}

// RecordDispatch counts one outbound action result.
func RecordDispatch(kind, result string) {
	dispatchTotal.With(prometheus.Labels{"kind": kind, "result": result}).Inc()
}
