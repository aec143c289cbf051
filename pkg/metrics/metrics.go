package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Desired-state metrics, set once per run by Report after the deploy phases.
	ServicesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskctl_services_total",
			Help: "Total number of services in the loaded desired state",
		},
	)

	ScheduledTasksTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskctl_scheduled_tasks_total",
			Help: "Total number of scheduled tasks in the loaded desired state",
		},
	)

	// Reconciliation metrics.
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskctl_reconciliation_duration_seconds",
			Help:    "Time taken for a full reconciliation run in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	RecordsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taskctl_records_by_status",
			Help: "Number of service/task records by terminal status after a run",
		},
		[]string{"kind", "status"},
	)

	// Per-operation metrics, labeled by the deploy bucket a service landed
	// in.
	DeploymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskctl_deployments_total",
			Help: "Total number of service deployments by mutation kind and bucket",
		},
		[]string{"mutation", "bucket"},
	)

	DeploymentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskctl_deployment_duration_seconds",
			Help:    "Service deployment duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mutation"},
	)

	ServicesDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskctl_services_deleted_total",
			Help: "Total number of unused services deleted",
		},
	)

	// CloudAPI call metrics, recorded by the retry helper around every
	// AWS SDK invocation.
	CloudAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskctl_cloudapi_requests_total",
			Help: "Total number of cloud API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CloudAPIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskctl_cloudapi_request_duration_seconds",
			Help:    "Cloud API call duration in seconds by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CloudAPIThrottleRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskctl_cloudapi_throttle_retries_total",
			Help: "Total number of throttling-triggered retries by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(ServicesTotal)
	prometheus.MustRegister(ScheduledTasksTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(RecordsByStatus)
	prometheus.MustRegister(DeploymentsTotal)
	prometheus.MustRegister(DeploymentDuration)
	prometheus.MustRegister(ServicesDeletedTotal)
	prometheus.MustRegister(CloudAPIRequestsTotal)
	prometheus.MustRegister(CloudAPIRequestDuration)
	prometheus.MustRegister(CloudAPIThrottleRetriesTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
