package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegematch_catalog_requests_total",
			Help: "College Scorecard HTTP attempts by outcome",
		},
		[]string{"outcome"}, // ok, retryable, client_error, transport
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegematch_catalog_cache_lookups_total",
			Help: "Catalog response cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	BudgetClamped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collegematch_budget_clamped_total",
			Help: "Searches whose budget exceeded the catalog ceiling",
		},
	)

	RankingCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegematch_ranking_calls_total",
			Help: "Generative ranking calls by result kind",
		},
		[]string{"result"},
	)

	SearchesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegematch_searches_total",
			Help: "Search pipeline runs by ranking status or error kind",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collegematch_search_duration_seconds",
			Help:    "Duration of search pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		},
		[]string{"stage"}, // fetch, rank, persist, total
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collegematch_rate_limited_total",
			Help: "Search requests rejected by the per-user throttle",
		},
	)
)
