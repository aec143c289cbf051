package reconciler

import (
	"context"

	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/cuemby/taskctl/pkg/model"
)

// ruleName derives the EventBridge rule name taskctl uses for a
// scheduled task's family — a stable, deterministic name so re-runs find
// the same rule.
func ruleName(family string) string {
	return "taskctl-" + family
}

// stopScheduledTasks is phase 6: for each deploy scheduled task whose
// rule currently exists, disable it (so nothing new fires mid-deploy),
// list its currently-running tasks, stop each, and wait for all of them
// to reach STOPPED.
func (e *Engine) stopScheduledTasks(ctx context.Context, tasks []*model.ScheduledTask) {
	active := notErrored(filterExisting(tasks))
	runPhase(e, "stop-scheduled-tasks", active, func(ctx context.Context, client *cloudapi.Client, t *model.ScheduledTask) error {
		name := ruleName(t.Family)
		if rule, err := client.DescribeRule(ctx, name); err == nil && rule != nil && rule.State == model.ScheduleEnabled {
			if _, err := client.PutRule(ctx, name, rule.ScheduleExpr, false); err != nil {
				return err
			}
		}

		arns, err := client.ListRunningTaskArns(ctx, t.Cluster, t.Family)
		if err != nil {
			return err
		}
		for _, arn := range arns {
			if err := client.StopTask(ctx, t.Cluster, arn, "taskctl: stopping before deploy"); err != nil {
				return err
			}
		}
		return client.WaitTasksStopped(ctx, t.Cluster, arns)
	})
}

func filterExisting(tasks []*model.ScheduledTask) []*model.ScheduledTask {
	out := make([]*model.ScheduledTask, 0, len(tasks))
	for _, t := range tasks {
		if t.TaskExists {
			out = append(out, t)
		}
	}
	return out
}

// deployScheduledTasks is phase 10: register a new task-definition
// revision when changed, then putRule + putTargets + addPermission.
// addPermission's ResourceConflict (the statement already exists from a
// prior run) is swallowed by cloudapi.AddInvokePermission itself.
func (e *Engine) deployScheduledTasks(ctx context.Context, tasks []*model.ScheduledTask) {
	deploy := notErrored(tasks)
	runPhase(e, "deploy-scheduled-tasks", deploy, func(ctx context.Context, client *cloudapi.Client, t *model.ScheduledTask) error {
		if t.IsSameTaskDefinition == nil || !*t.IsSameTaskDefinition {
			arn, err := client.RegisterTaskDefinition(ctx, t.TaskDefinition)
			if err != nil {
				return err
			}
			t.TaskDefinition.Arn = arn
			if t.TaskExists && t.OriginTaskDefinitionArn != "" {
				if err := client.DeregisterTaskDefinition(ctx, t.OriginTaskDefinitionArn); err != nil {
					return err
				}
			}
		}

		name := ruleName(t.Family)
		enabled := t.State == model.ScheduleEnabled && !t.Disabled
		ruleArn, err := client.PutRule(ctx, name, t.ScheduleExpression, enabled)
		if err != nil {
			return err
		}
		if err := client.PutTargetsLambda(ctx, name, t.TargetLambdaArn); err != nil {
			return err
		}
		statementID := "taskctl-" + name
		return client.AddInvokePermission(ctx, t.TargetLambdaArn, statementID, ruleArn)
	})
}
