/*
Package metrics provides Prometheus metrics and health endpoints for taskctl.

Metrics are defined and registered at package init and exposed via the
optional --metrics-addr HTTP listener. Because a taskctl
run is a single pass rather than a long-running daemon, there is no
background scrape loop: gauges are set once via Report after the
reconciliation engine finishes, and counters/histograms are updated inline
by the cloud API client and the deploy phases as they happen.

# Metrics Catalog

Desired state (set by Report once per run):
  - taskctl_services_total, taskctl_scheduled_tasks_total
  - taskctl_records_by_status{kind, status}: terminal status breakdown

Reconciliation:
  - taskctl_reconciliation_duration_seconds
  - taskctl_deployments_total{mutation, bucket}
  - taskctl_deployment_duration_seconds{mutation}
  - taskctl_services_deleted_total

Cloud API (recorded by the retry helper around every SDK call):
  - taskctl_cloudapi_requests_total{operation, outcome}
  - taskctl_cloudapi_request_duration_seconds{operation}
  - taskctl_cloudapi_throttle_retries_total{operation}

# Health

HealthHandler/ReadyHandler/LivenessHandler expose /health, /ready and
/live for the optional --metrics-addr server. Readiness tracks two
critical components: "cloudapi" (can the AWS SDK clients be constructed)
and "config" (did the desired state load successfully). The `service`
command registers both as not ready when its server starts, and the
orchestrator marks each one healthy via UpdateComponent once that step
succeeds.

# Usage

	timer := metrics.NewTimer()
	// ... deploy ...
	timer.ObserveDurationVec(metrics.DeploymentDuration, mutation.String())

	metrics.Report(result.AllServices, result.AllScheduledTasks)
*/
package metrics
