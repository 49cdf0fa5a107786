// Package metrics exposes Prometheus counters for grading and persistence.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
)

// Collector records study events. It implements study.Recorder.
type Collector struct {
	grades        *prometheus.CounterVec
	persistFailed *prometheus.CounterVec
	rolledBack    *prometheus.CounterVec
	due           *prometheus.GaugeVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langdrill_grades_total",
			Help: "Cards graded, by deck, direction and rating.",
		}, []string{"deck", "direction", "rating"}),
		persistFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langdrill_persist_failures_total",
			Help: "Review store writes that failed.",
		}, []string{"deck", "direction"}),
		rolledBack: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langdrill_rollbacks_total",
			Help: "Optimistic updates rolled back after a failed write.",
		}, []string{"deck", "direction"}),
		due: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "langdrill_due_cards",
			Help: "Actionable cards at the last due-count refresh.",
		}, []string{"deck", "direction"}),
	}

	reg.MustRegister(c.grades, c.persistFailed, c.rolledBack, c.due)
	return c
}

func (c *Collector) Graded(key domain.Key, rating fsrs.Rating) {
	c.grades.WithLabelValues(string(key.Deck), string(key.Direction), rating.String()).Inc()
}

func (c *Collector) PersistFailed(key domain.Key) {
	c.persistFailed.WithLabelValues(string(key.Deck), string(key.Direction)).Inc()
}

func (c *Collector) RolledBack(key domain.Key) {
	c.rolledBack.WithLabelValues(string(key.Deck), string(key.Direction)).Inc()
}

// SetDue records the due count of key.
func (c *Collector) SetDue(key domain.Key, n int) {
	c.due.WithLabelValues(string(key.Deck), string(key.Direction)).Set(float64(n))
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
