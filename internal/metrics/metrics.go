// Package metrics holds the prometheus collectors exported by serve.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the registry /metrics serves. Collectors register here rather
// than on the global default so tests can build fresh servers freely.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// GeoLookups counts per-name geo-target resolutions by outcome
	// (cache_hit, resolved, no_candidates, error).
	GeoLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keyword_geo_lookups_total",
		Help: "Geo-target resolutions by outcome.",
	}, []string{"outcome"})

	// RepairOutcomes counts categorization replies by the repair strategy that
	// produced the record.
	RepairOutcomes = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keyword_repair_outcomes_total",
		Help: "Model reply repairs by winning strategy.",
	}, []string{"strategy"})

	// RemoteCalls counts external API calls by service, operation and result.
	RemoteCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keyword_remote_calls_total",
		Help: "External API calls by service, operation and result.",
	}, []string{"service", "operation", "result"})

	// PipelineRuns counts orchestrated runs by final status.
	PipelineRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "keyword_pipeline_runs_total",
		Help: "Pipeline runs by final status.",
	}, []string{"status"})

	// KeywordIdeas observes how many ideas each run returned.
	KeywordIdeas = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "keyword_ideas_per_run",
		Help:    "Keyword ideas returned per run.",
		Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2000, 5000},
	})
)

// Result maps an error to the "ok"/"error" label used by RemoteCalls.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
