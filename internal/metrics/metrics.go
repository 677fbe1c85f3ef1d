// Package metrics declares the gateway's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModelsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "speaches_models_loaded",
		Help: "Number of currently resident model sessions, by family.",
	}, []string{"family"})

	ModelLoadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speaches_model_load_total",
		Help: "Total model load attempts, by family and outcome.",
	}, []string{"family", "outcome"})

	ModelLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speaches_model_load_duration_seconds",
		Help:    "Time spent loading a model session.",
		Buckets: prometheus.DefBuckets,
	}, []string{"family"})

	ModelUnloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speaches_model_unload_total",
		Help: "Total model unloads, by family and reason (ttl, forced).",
	}, []string{"family", "reason"})

	LeaseWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speaches_lease_wait_duration_seconds",
		Help:    "Time a caller waited to acquire a lease (includes any cold load).",
		Buckets: prometheus.DefBuckets,
	}, []string{"family"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speaches_stage_duration_seconds",
		Help:    "Per-stage latency (transcribe, synthesize, upstream-chat).",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speaches_requests_total",
		Help: "Total HTTP requests, by route and status class.",
	}, []string{"route", "status"})

	TranscriptCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speaches_transcript_cache_total",
		Help: "Audio transcript cache lookups, by outcome (hit, miss).",
	}, []string{"outcome"})
)
