// Package metrics holds the Prometheus collectors for scheduling and sync.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reread"

type Metrics struct {
	operations *prometheus.CounterVec
	placed     *prometheus.CounterVec
	removed    *prometheus.CounterVec
	syncJobs   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily",
			Name:      "operations_total",
			Help:      "Reconciler operations by name and outcome.",
		}, []string{"op", "outcome"}),
		placed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily",
			Name:      "highlights_placed_total",
			Help:      "Highlights linked to a day by the reconciler.",
		}, []string{"op"}),
		removed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily",
			Name:      "assignments_removed_total",
			Help:      "Assignments deleted by the reconciler.",
		}, []string{"op"}),
		syncJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "jobs_total",
			Help:      "Remote sync jobs by action and outcome.",
		}, []string{"action", "outcome"}),
	}
}

func (m *Metrics) Operation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Placed(op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.placed.WithLabelValues(op).Add(float64(n))
}

func (m *Metrics) Removed(op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.removed.WithLabelValues(op).Add(float64(n))
}

func (m *Metrics) SyncJob(action, outcome string) {
	if m == nil {
		return
	}
	m.syncJobs.WithLabelValues(action, outcome).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
