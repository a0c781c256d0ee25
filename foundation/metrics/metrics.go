// Package metrics holds the prometheus collectors shared by the blockchain
// packages and the web middleware.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siertri"

// Mining outcome label values.
const (
	OutcomeFound     = "found"
	OutcomeExhausted = "exhausted"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

var (
	// LeavesScanned counts leaf triangles tested against a threshold.
	LeavesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mining",
		Name:      "leaves_scanned_total",
		Help:      "Leaf triangles tested against the mining threshold.",
	}, []string{"variant"})

	// MiningAttempts counts mining calls by variant and outcome.
	MiningAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mining",
		Name:      "attempts_total",
		Help:      "Mining calls by variant and outcome.",
	}, []string{"variant", "outcome"})

	// MiningDuration observes how long a mining call ran.
	MiningDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "mining",
		Name:      "duration_seconds",
		Help:      "Time spent in a single mining call.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"variant"})

	// ValidationFailures counts rejected blocks by reason.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "consensus",
		Name:      "validation_failures_total",
		Help:      "Blocks rejected by validation, by reason.",
	}, []string{"reason"})

	// ChainHeight reports the index of the latest block.
	ChainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "height",
		Help:      "Index of the latest block.",
	})

	// ComplexityScore reports the chain complexity score.
	ComplexityScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "complexity_score",
		Help:      "Sum of mining address depths across the chain.",
	})

	// Requests counts handled web requests.
	Requests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "requests_total",
		Help:      "Web requests handled.",
	})

	// Errors counts web requests that ended in an error.
	Errors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "errors_total",
		Help:      "Web requests that returned an error.",
	})

	// Panics counts recovered handler panics.
	Panics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "panics_total",
		Help:      "Handler panics recovered by middleware.",
	})
)

// Handler returns the http handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
