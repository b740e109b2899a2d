package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "novelcraft"

	jobsTotal          = "jobs_total"
	jobsRunning        = "jobs_running"
	generationAttempts = "generation_attempts_total"
	generationDuration = "generation_duration_seconds"
	contextBudgetUsage = "context_budget_used_ratio"

	// Labels
	jobTypeLabel = "job_type"
	outcomeLabel = "outcome"
	codeLabel    = "code"
)

// Job outcomes recorded by the worker.
const (
	OutcomeCompleted = "completed"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
)

// CodeOK labels a generation attempt that produced content.
const CodeOK = "OK"

var jobsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      jobsTotal,
		Help:      "number of generation jobs that finished an attempt, by outcome",
	},
	[]string{jobTypeLabel, outcomeLabel},
)

var jobsRunningMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      jobsRunning,
		Help:      "number of handlers currently executing in this process",
	},
)

var generationAttemptsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      generationAttempts,
		Help:      "external generation process invocations, by result code",
	},
	[]string{codeLabel},
)

var generationDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      generationDuration,
		Help:      "wall time of a single external generation process",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 180, 300, 450, 600, 900},
	},
)

var contextBudgetUsageMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      contextBudgetUsage,
		Help:      "share of the context budget consumed by assembled prompt context",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 11),
	},
)

func IncreaseJobsTotal(jobType, outcome string) {
	jobsTotalMetric.With(prometheus.Labels{jobTypeLabel: jobType, outcomeLabel: outcome}).Inc()
}

func JobStarted()  { jobsRunningMetric.Inc() }
func JobFinished() { jobsRunningMetric.Dec() }

func ObserveGeneration(code string, elapsed time.Duration) {
	generationAttemptsMetric.With(prometheus.Labels{codeLabel: code}).Inc()
	generationDurationMetric.Observe(elapsed.Seconds())
}

func ObserveContextUsage(used, total int) {
	if total <= 0 {
		return
	}
	contextBudgetUsageMetric.Observe(float64(used) / float64(total))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsTotalMetric)
	prometheus.MustRegister(jobsRunningMetric)
	prometheus.MustRegister(generationAttemptsMetric)
	prometheus.MustRegister(generationDurationMetric)
	prometheus.MustRegister(contextBudgetUsageMetric)
}
