package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Answer outcomes.
const (
	OutcomeGenerated   = "generated"
	OutcomeNoHistory   = "no_history"
	OutcomeFailed      = "failed"
	OutcomeRateLimited = "rate_limited"
	OutcomeEmpty       = "empty_question"
)

var (
	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archivist_answers_total",
			Help: "Answers returned, by outcome",
		},
		[]string{"outcome"},
	)

	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archivist_retrieval_duration_seconds",
			Help:    "Record store search latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	RetrievalFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archivist_retrieval_failures_total",
			Help: "Record store searches that failed and degraded to an empty result",
		},
	)

	RecordsRetrieved = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archivist_records_retrieved",
			Help:    "Records returned per retrieval",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "archivist_generation_duration_seconds",
			Help:    "Language model completion latency",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"status"},
	)

	PromptTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archivist_prompt_tokens",
			Help:    "Estimated prompt size in tokens",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archivist_rate_limit_hits_total",
			Help: "Questions rejected by the per-user limiter",
		},
	)

	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archivist_records_ingested_total",
			Help: "Records written to the store",
		},
		[]string{"source"}, // "live", "edit" or "backfill"
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archivist_commands_total",
			Help: "Chat commands executed",
		},
		[]string{"command"},
	)
)
