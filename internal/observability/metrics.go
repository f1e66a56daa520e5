package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PublishOutcomes counts publisher results by platform and outcome
	// (published, error) plus the error kind for failures.
	PublishOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampcast_publish_outcomes_total",
		Help: "Publisher per-post outcomes by platform, outcome, and error kind",
	}, []string{"platform", "outcome", "kind"})

	// AdapterCallDuration records platform API call latency by platform and operation.
	AdapterCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ampcast_adapter_call_duration_seconds",
		Help:    "Platform API call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"platform", "operation"})

	// AdapterRetries counts transient-failure retries per platform.
	AdapterRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampcast_adapter_retries_total",
		Help: "Total adapter invocation retries after transient failures",
	}, []string{"platform"})

	// PublishThrottled counts posts deferred by the outbound rate limiter.
	PublishThrottled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampcast_publish_throttled_total",
		Help: "Posts skipped in a run because the per-owner platform window was exhausted",
	}, []string{"platform"})

	// InsightsEmitted counts produced insights by type.
	InsightsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampcast_insights_emitted_total",
		Help: "Total insights emitted by type",
	}, []string{"type"})

	// ExperimentAnalyses counts analyze() calls by verdict.
	ExperimentAnalyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampcast_experiment_analyses_total",
		Help: "Experiment analyze results by verdict (significant, not_significant, insufficient_data, stored)",
	}, []string{"verdict"})

	// RedisErrors counts Redis failures by operation, mirroring the cache hook.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampcast_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)
