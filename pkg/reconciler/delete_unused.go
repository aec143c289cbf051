package reconciler

import (
	"context"
	"fmt"

	"github.com/cuemby/taskctl/pkg/cloudapi"
)

// deleteTarget wraps a deleteServiceTarget/deleteScheduledTaskTarget so it
// satisfies errorRecorder for runPhase; delete targets aren't
// desired-state records, so a failure here is logged but doesn't flip
// any model.Service/model.ScheduledTask — there is none to flip.
type deleteTarget struct {
	service *deleteServiceTarget
	task    *deleteScheduledTaskTarget
	err     error
}

func (d *deleteTarget) MarkError(err error) { d.err = err }

// deleteUnused is phase 3: scale each unused service to zero, wait
// stable, then delete; for unused scheduled tasks, revoke the Lambda
// invoke permission, remove targets, and delete the rule.
func (e *Engine) deleteUnused(ctx context.Context, deleteServices []deleteServiceTarget, deleteScheduledTasks []deleteScheduledTaskTarget) {
	jobs := make([]*deleteTarget, 0, len(deleteServices)+len(deleteScheduledTasks))
	for i := range deleteServices {
		jobs = append(jobs, &deleteTarget{service: &deleteServices[i]})
	}
	for i := range deleteScheduledTasks {
		jobs = append(jobs, &deleteTarget{task: &deleteScheduledTasks[i]})
	}

	runPhase(e, "delete-unused", jobs, func(ctx context.Context, client *cloudapi.Client, job *deleteTarget) error {
		if job.service != nil {
			if err := client.DeleteService(ctx, job.service.Cluster, job.service.ServiceName); err != nil {
				return fmt.Errorf("delete service %s/%s: %w", job.service.Cluster, job.service.ServiceName, err)
			}
			return nil
		}

		t := job.task
		statementID := "taskctl-" + t.Rule.Name
		if t.Rule.TargetLambdaArn != "" {
			_ = client.RemoveInvokePermission(ctx, t.Rule.TargetLambdaArn, statementID)
		}
		if err := client.RemoveTargetsAndDeleteRule(ctx, t.Rule.Name); err != nil {
			return fmt.Errorf("delete rule %s: %w", t.Rule.Name, err)
		}
		return nil
	})
}

// logCheckDelete is the dry-run / --no-delete-unused-service path: report
// what would be deleted without mutating anything.
func (e *Engine) logCheckDelete(deleteServices []deleteServiceTarget, deleteScheduledTasks []deleteScheduledTaskTarget) {
	checkDeleteLog := e.logger.With().Str("phase", "check-delete").Logger()
	for _, s := range deleteServices {
		checkDeleteLog.Info().Str("cluster", s.Cluster).Str("service", s.ServiceName).Msg("unused service would be deleted")
	}
	for _, t := range deleteScheduledTasks {
		checkDeleteLog.Info().Str("rule", t.Rule.Name).Msg("unused scheduled task rule would be deleted")
	}
}
