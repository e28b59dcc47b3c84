package utils

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	requestCount atomic.Uint64
	errorCount   atomic.Uint64

	requests         prometheus.Counter
	errors           prometheus.Counter
	operationLatency *prometheus.HistogramVec
	argumentsCreated prometheus.Counter
	ratings          *prometheus.CounterVec
	reputationPoints *prometheus.CounterVec
	analysisOutcomes *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec

	systemStartTime time.Time
}

// NewMetricsCollector registers the collectors on reg. Pass prometheus.NewRegistry()
// in tests to keep instances isolated.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debate_requests_total",
			Help: "Total number of HTTP requests handled.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debate_request_errors_total",
			Help: "Total number of HTTP requests that ended with an error response.",
		}),
		operationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "debate_operation_duration_seconds",
			Help:    "Latency of engine operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		argumentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debate_arguments_created_total",
			Help: "Total number of arguments persisted.",
		}),
		ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debate_ratings_total",
			Help: "Ratings recorded, by rating type.",
		}, []string{"type"}),
		reputationPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debate_reputation_transactions_total",
			Help: "Reputation ledger entries appended, by action type.",
		}, []string{"action"}),
		analysisOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debate_analysis_total",
			Help: "AI analysis calls, by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debate_rate_limited_total",
			Help: "Mutations denied by the rate limiter, by action.",
		}, []string{"action"}),
		systemStartTime: time.Now(),
	}

	if reg != nil {
		reg.MustRegister(
			mc.requests,
			mc.errors,
			mc.operationLatency,
			mc.argumentsCreated,
			mc.ratings,
			mc.reputationPoints,
			mc.analysisOutcomes,
			mc.rateLimited,
		)
	}
	return mc
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.requestCount.Add(1)
	mc.requests.Inc()
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.errorCount.Add(1)
	mc.errors.Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.operationLatency.WithLabelValues(operationName).Observe(duration.Seconds())
}

func (mc *MetricsCollector) ArgumentCreated() {
	mc.argumentsCreated.Inc()
}

func (mc *MetricsCollector) RatingRecorded(ratingType string) {
	mc.ratings.WithLabelValues(ratingType).Inc()
}

func (mc *MetricsCollector) ReputationApplied(action string) {
	mc.reputationPoints.WithLabelValues(action).Inc()
}

func (mc *MetricsCollector) AnalysisOutcome(outcome string) {
	mc.analysisOutcomes.WithLabelValues(outcome).Inc()
}

func (mc *MetricsCollector) RateLimited(action string) {
	mc.rateLimited.WithLabelValues(action).Inc()
}

// Snapshot returns the counters reported by the health endpoint.
func (mc *MetricsCollector) Snapshot() (requests, errors uint64, uptime time.Duration) {
	return mc.requestCount.Load(), mc.errorCount.Load(), time.Since(mc.systemStartTime)
}
