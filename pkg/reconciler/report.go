package reconciler

import (
	"github.com/cuemby/taskctl/pkg/config"
	"github.com/cuemby/taskctl/pkg/model"
)

// RecordResult is one line of the final per-record report: what taskctl
// did (or would do, in dry-run) with a single service or scheduled task.
type RecordResult struct {
	Kind   string // "service" or "scheduled-task"
	Family string
	Status model.Status
	Err    error
}

// Report is phase 11's result check: the full set of per-record outcomes
// plus the deleted/would-delete lists, and the single Failed() bit the
// CLI maps onto its exit code.
type Report struct {
	Records         []RecordResult
	DeletedServices []deleteServiceTarget
	DeletedTasks    []deleteScheduledTaskTarget
	DryRun          bool
}

// Failed reports whether any record ended in StatusError — taskctl exits
// non-zero iff at least one record failed to reconcile.
func (r *Report) Failed() bool {
	for _, rec := range r.Records {
		if rec.Status == model.StatusError {
			return true
		}
	}
	return false
}

func (e *Engine) buildReport(result *config.Result, deleteServices []deleteServiceTarget, deleteScheduledTasks []deleteScheduledTaskTarget) *Report {
	report := &Report{
		DeletedServices: deleteServices,
		DeletedTasks:    deleteScheduledTasks,
		DryRun:          e.opts.DryRun,
	}

	for _, s := range result.AllServices {
		report.Records = append(report.Records, RecordResult{
			Kind:   "service",
			Family: s.Family,
			Status: s.Status,
			Err:    s.Err,
		})
	}
	for _, t := range result.AllScheduledTasks {
		report.Records = append(report.Records, RecordResult{
			Kind:   "scheduled-task",
			Family: t.Family,
			Status: t.Status,
			Err:    t.Err,
		})
	}

	return report
}
