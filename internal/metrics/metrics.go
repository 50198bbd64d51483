// Package metrics provides Prometheus collectors for schema compilation and deployment.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cqlmap/internal/model"
)

const namespace = "cqlmap"

// Outcome labels for Compilations.
const (
	OutcomeAccepted = "accepted"
	OutcomePartial  = "partial"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Collector holds the compilation metrics.
type Collector struct {
	Compilations    *prometheus.CounterVec
	Operations      *prometheus.CounterVec
	Diagnostics     *prometheus.CounterVec
	CompileDuration prometheus.Histogram
}

// New creates a collector and registers it on reg. A nil reg leaves the
// collectors unregistered.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Compilations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compilations_total",
				Help:      "Schema compilations by outcome",
			},
			[]string{"outcome"},
		),
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Root fields compiled or skipped",
			},
			[]string{"result"},
		),
		Diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Diagnostics reported by severity",
			},
			[]string{"severity"},
		),
		CompileDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compile_duration_seconds",
				Help:      "Time spent compiling a schema document",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
	}
}

// ObserveCompile records one compilation of m that took d. A nil m counts as
// a failed compilation (the document didn't parse).
func (c *Collector) ObserveCompile(m *model.SchemaModel, outcome string, d time.Duration) {
	c.CompileDuration.Observe(d.Seconds())
	c.Compilations.WithLabelValues(outcome).Inc()
	if m == nil {
		return
	}

	c.Operations.WithLabelValues("compiled").Add(float64(len(m.Operations())))
	c.Operations.WithLabelValues("skipped").Add(float64(len(m.Skipped())))
	c.Diagnostics.WithLabelValues(model.SeverityError.String()).Add(float64(len(m.Errors())))
	c.Diagnostics.WithLabelValues(model.SeverityWarning.String()).Add(float64(len(m.Warnings())))
}
