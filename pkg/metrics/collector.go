package metrics

import "github.com/cuemby/taskctl/pkg/model"

// Report snapshots the outcome of a reconciliation run into the package's
// gauges: desired-state sizes and a per-status breakdown of the records
// the engine produced. Unlike a scraped daemon, taskctl runs once per
// invocation, so this is a single point-in-time report rather than a
// ticking collector.
func Report(services []*model.Service, tasks []*model.ScheduledTask) {
	ServicesTotal.Set(float64(len(services)))
	ScheduledTasksTotal.Set(float64(len(tasks)))

	counts := map[string]map[string]int{
		"service":       {},
		"scheduledTask": {},
	}
	for _, s := range services {
		counts["service"][s.Status.String()]++
	}
	for _, t := range tasks {
		counts["scheduledTask"][t.Status.String()]++
	}
	for kind, byStatus := range counts {
		for status, count := range byStatus {
			RecordsByStatus.WithLabelValues(kind, status).Set(float64(count))
		}
	}
}
