package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "luna_research_cache_hits_total",
			Help: "Total number of research cache hits",
		},
	)

	ResearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "luna_research_cache_misses_total",
			Help: "Total number of research cache misses",
		},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luna_research_provider_calls_total",
			Help: "Total number of research provider calls",
		},
		[]string{"provider", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "luna_research_provider_latency_seconds",
			Help: "Research provider call latency in seconds",
		},
		[]string{"provider"},
	)

	DegradedResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "luna_research_degraded_results_total",
			Help: "Total number of degraded research results",
		},
	)

	SpecialistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luna_strategy_specialist_failures_total",
			Help: "Total number of specialist evaluation failures",
		},
		[]string{"specialist"},
	)

	TasksDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luna_tasks_dispatched_total",
			Help: "Total number of tasks dispatched to the automation backend",
		},
		[]string{"category", "outcome"},
	)

	TasksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luna_tasks_rejected_total",
			Help: "Total number of tasks rejected by the safety filter",
		},
		[]string{"category"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "luna_active_sessions",
			Help: "Number of sessions currently mid-advance",
		},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "luna_turn_duration_seconds",
			Help: "End-to-end conversation turn duration in seconds",
		},
		[]string{"stage"},
	)
)
