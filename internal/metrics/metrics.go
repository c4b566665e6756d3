package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote Processing Metrics
var (
	// VotesTotal tracks votes processed by result
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_total",
			Help: "Total votes processed by result (applied/invalid/closed/rate_limited/error)",
		},
		[]string{"result"},
	)

	// SignalDerivations tracks signal snapshot computations
	SignalDerivations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_derivations_total",
			Help: "Total signal snapshot derivations from vote aggregates",
		},
	)

	// WarningsTriggered tracks warning banners produced by derivations, by rule
	WarningsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warnings_triggered_total",
			Help: "Warning banners produced by signal derivations, by rule",
		},
		[]string{"rule"},
	)
)

// Ingest Metrics
var (
	// IngestDecisions tracks submission outcomes by action and source
	IngestDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_decisions_total",
			Help: "Total submission resolutions by action (created/reused/rejected) and source",
		},
		[]string{"action", "source"},
	)

	// VenueFuzzyMerges tracks venues merged through similarity matching
	VenueFuzzyMerges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venue_fuzzy_merges_total",
			Help: "Total venue names merged into an existing venue via fuzzy match",
		},
	)

	// UnclaimedVenuesCreated tracks placeholder venue rows created by ingest
	UnclaimedVenuesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unclaimed_venues_created_total",
			Help: "Total unclaimed venue rows created for unmatched submissions",
		},
	)
)

// Lifecycle Metrics
var (
	// LifecycleTransitions tracks event state transitions by target state
	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transitions_total",
			Help: "Total event lifecycle transitions by target state (live/cooling/archived/purged)",
		},
		[]string{"state"},
	)

	// LifecycleRunDuration tracks lifecycle sweep duration
	LifecycleRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lifecycle_run_duration_seconds",
			Help:    "Lifecycle sweep duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
)

// Harvest Metrics
var (
	// HarvestFetchesTotal tracks feed fetches by result
	HarvestFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_fetches_total",
			Help: "Total harvest feed fetches by result (success/error/breaker_open)",
		},
		[]string{"result"},
	)

	// HarvestEventsSeen tracks raw events seen per feed fetch
	HarvestEventsSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_events_seen_total",
			Help: "Total raw events seen in harvested feeds",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Rate Limiting Metrics
var (
	// RateLimitRejections tracks device actions rejected by limiter and action
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total device actions rejected by rate limiting, by action",
		},
		[]string{"action"},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query duration by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks database errors by query name
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by query",
		},
		[]string{"query"},
	)
)

// Redis Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// HTTP Error Metrics
// Note: http_errors_total{type} is provided by internal/errors package
