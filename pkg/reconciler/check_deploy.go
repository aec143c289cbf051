package reconciler

import (
	"context"

	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/cuemby/taskctl/pkg/config"
	"github.com/cuemby/taskctl/pkg/model"
)

// checkDeploy is phase 4: for every desired record not yet bound to an
// observed one (the race/new-creation case — classify ran before this
// record's service existed, or it's simply new), issue a direct describe
// and bind it if found. Then diff container definitions and record
// IsSameTaskDefinition plus a human-readable report line.
func (e *Engine) checkDeploy(ctx context.Context, result *config.Result) {
	services := notErrored(result.AllServices)
	runPhase(e, "check-deploy-services", services, func(ctx context.Context, client *cloudapi.Client, svc *model.Service) error {
		if !svc.OriginServiceExists {
			rebindService(ctx, client, svc)
		}
		report := svc.CheckDeploy()
		e.logger.Info().Str("phase", "check-deploy").Str("family", svc.Family).Msg(report)
		return nil
	})

	tasks := notErrored(result.AllScheduledTasks)
	runPhase(e, "check-deploy-scheduled-tasks", tasks, func(ctx context.Context, client *cloudapi.Client, t *model.ScheduledTask) error {
		var originDefs []model.ContainerDefinition
		if t.TaskExists && t.OriginTaskDefinitionArn != "" {
			td, _, err := client.DescribeTaskDefinition(ctx, t.OriginTaskDefinitionArn)
			if err == nil && td != nil {
				originDefs = td.ContainerDefinitions
			}
		}
		report := t.CheckDeploy(originDefs)
		e.logger.Info().Str("phase", "check-deploy").Str("family", t.Family).Msg(report)
		return nil
	})
}

// rebindService retries the observed-service lookup directly by name,
// handling the case where the service was created concurrently with, or
// just after, the fetch phase's ListServices snapshot.
func rebindService(ctx context.Context, client *cloudapi.Client, svc *model.Service) {
	services, err := client.DescribeServicesBatched(ctx, svc.Cluster, []string{svc.ServiceName})
	if err != nil || len(services) == 0 {
		return
	}
	active, ok := cloudapi.DescribeActiveService(services, svc.ServiceName)
	if !ok {
		return
	}
	svc.OriginServiceExists = true
	svc.OriginDesiredCount = int(active.DesiredCount)
	svc.RunningCount = int(active.RunningCount)
	if active.TaskDefinition != nil {
		td, arn, err := client.DescribeTaskDefinition(ctx, *active.TaskDefinition)
		if err == nil && td != nil {
			svc.OriginTaskDefinition = td
			svc.OriginTaskDefinitionArn = arn
		}
	}
}
