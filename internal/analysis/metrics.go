package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// mutantVerdicts counts classified mutants.
	// Labels: technique, status
	mutantVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schemata",
		Subsystem: "analysis",
		Name:      "mutants_total",
		Help:      "Mutants classified, by verdict",
	}, []string{"technique", "status"})

	// statementOutcomes counts suite statements executed against mutants.
	// Labels: outcome (ok, failed)
	statementOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schemata",
		Subsystem: "analysis",
		Name:      "statements_total",
		Help:      "Suite statements executed against mutant tables",
	}, []string{"outcome"})

	// mutantDuration measures the time to run the suite against one mutant.
	mutantDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "schemata",
		Subsystem: "analysis",
		Name:      "mutant_duration_seconds",
		Help:      "Time to execute the suite against one mutant",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"technique"})
)
