package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Drafting metrics
	ChunksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipthread_draft_chunks_total",
			Help: "Chunks sent to the drafting backend, by outcome",
		},
		[]string{"outcome"},
	)

	ParseStrategyHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipthread_draft_parse_strategy_total",
			Help: "Backend responses parsed, by the strategy that succeeded",
		},
		[]string{"strategy"},
	)

	DraftsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clipthread_drafts_generated_total",
			Help: "Total number of drafts produced",
		},
	)

	ChunkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clipthread_draft_chunk_duration_seconds",
			Help:    "Backend call duration per chunk",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// Workflow metrics
	StageRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipthread_stage_runs_total",
			Help: "Workflow stage executions, by stage and result",
		},
		[]string{"stage", "result"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipthread_stage_duration_seconds",
			Help:    "Workflow stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"stage"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clipthread_queue_depth",
			Help: "Tasks waiting in the background queue",
		},
	)
)
