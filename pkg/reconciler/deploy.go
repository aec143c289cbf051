package reconciler

import (
	"context"

	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/cuemby/taskctl/pkg/model"
)

// stopBeforeDeploy is phase 7: scale every service in
// primaryStopBefore ∪ stopBefore to zero and wait for it to drain,
// primary group first so a primary-placement rollback never races a
// secondary one still holding traffic.
func (e *Engine) stopBeforeDeploy(ctx context.Context, b buckets) {
	e.scaleToZeroAndWait(ctx, "stop-before-deploy-primary", b.primaryStopBefore)
	e.scaleToZeroAndWait(ctx, "stop-before-deploy", b.stopBefore)
}

func (e *Engine) scaleToZeroAndWait(ctx context.Context, phase string, services []*model.Service) {
	active := notErrored(services)
	runPhase(e, phase, active, func(ctx context.Context, client *cloudapi.Client, svc *model.Service) error {
		if !svc.OriginServiceExists || svc.OriginDesiredCount == 0 {
			return nil
		}
		if err := client.UpdateService(ctx, cloudapi.CreateServiceInput{
			Cluster:               svc.Cluster,
			ServiceName:           svc.ServiceName,
			TaskDefinitionArn:     svc.OriginTaskDefinitionArn,
			DesiredCount:          0,
			MinimumHealthyPercent: svc.TaskEnvironment.MinimumHealthyPercent,
			MaximumPercent:        svc.TaskEnvironment.MaximumPercent,
			PlacementConstraints:  svc.PlacementConstraints,
		}); err != nil {
			return err
		}
		return client.WaitForStable(ctx, svc.Cluster, svc.ServiceName)
	})
}

// deployServices is phase 8: register the new task-definition revision
// where changed, then create-or-update and wait stable. Sub-phase a runs
// primaryDeploy first and blocks; sub-phase b runs
// remainDeploy ∪ primaryStopBefore ∪ stopBefore together. The
// stop-before buckets update onto the new revision here too, still at
// desired=0 — startAfterDeploy only restores their desired count.
func (e *Engine) deployServices(ctx context.Context, b buckets) {
	e.deployBucket(ctx, "deploy-services-primary", b.primaryDeploy)

	second := make([]*model.Service, 0, len(b.remainDeploy)+len(b.primaryStopBefore)+len(b.stopBefore))
	second = append(second, b.remainDeploy...)
	second = append(second, b.primaryStopBefore...)
	second = append(second, b.stopBefore...)
	e.deployBucket(ctx, "deploy-services", second)
}

func (e *Engine) deployBucket(ctx context.Context, phase string, services []*model.Service) {
	active := notErrored(services)
	runPhase(e, phase, active, func(ctx context.Context, client *cloudapi.Client, svc *model.Service) error {
		if err := e.registerIfChanged(ctx, client, svc); err != nil {
			return err
		}

		switch svc.Bucket() {
		case model.BucketPrimaryStopBefore, model.BucketStopBefore:
			// Already scaled to zero in stopBeforeDeploy. Move the service
			// onto the new task-definition revision while still at
			// desired=0, then wait stable; startAfterDeploy restores the
			// desired count against this same revision.
			if err := client.UpdateService(ctx, cloudapi.CreateServiceInput{
				Cluster:               svc.Cluster,
				ServiceName:           svc.ServiceName,
				TaskDefinitionArn:     svc.TaskDefinitionArn,
				DesiredCount:          0,
				MinimumHealthyPercent: svc.TaskEnvironment.MinimumHealthyPercent,
				MaximumPercent:        svc.TaskEnvironment.MaximumPercent,
				PlacementConstraints:  svc.PlacementConstraints,
			}); err != nil {
				return err
			}
			return client.WaitForStable(ctx, svc.Cluster, svc.ServiceName)
		}

		desired := svc.ResolveDesiredCount(e.opts.ServiceZeroKeep)
		in := cloudapi.CreateServiceInput{
			Cluster:                       svc.Cluster,
			ServiceName:                   svc.ServiceName,
			TaskDefinitionArn:             svc.TaskDefinitionArn,
			DesiredCount:                  desired,
			MinimumHealthyPercent:         svc.TaskEnvironment.MinimumHealthyPercent,
			MaximumPercent:                svc.TaskEnvironment.MaximumPercent,
			PlacementStrategy:             e.placementStrategyFor(svc),
			PlacementConstraints:          svc.PlacementConstraints,
			LoadBalancers:                 svc.LoadBalancers,
			HealthCheckGracePeriodSeconds: svc.HealthCheckGracePeriodSeconds,
			PlatformVersion:               svc.PlatformVersion,
		}

		if svc.MutationKind() == model.MutationCreate {
			if err := client.CreateService(ctx, in); err != nil {
				return err
			}
		} else if err := client.UpdateService(ctx, in); err != nil {
			return err
		}

		if err := client.WaitForStable(ctx, svc.Cluster, svc.ServiceName); err != nil {
			return err
		}

		return e.deregisterStalePrimary(ctx, client, svc)
	})
}

// binpackMemoryFirst is the placement strategy entry --placement-strategy-
// binpack-first prepends ahead of whatever a service's own template
// declares, biasing the scheduler toward consolidating tasks onto the
// fewest instances before any tiebreaker the template specifies runs.
var binpackMemoryFirst = model.PlacementStrategy{"type": "binpack", "field": "memory"}

// placementStrategyFor returns svc's placement strategy, with
// binpackMemoryFirst prepended when the engine was built with
// PlacementStrategyBinpackFirst set.
func (e *Engine) placementStrategyFor(svc *model.Service) []model.PlacementStrategy {
	if !e.opts.PlacementStrategyBinpackFirst {
		return svc.PlacementStrategy
	}
	out := make([]model.PlacementStrategy, 0, len(svc.PlacementStrategy)+1)
	out = append(out, binpackMemoryFirst)
	out = append(out, svc.PlacementStrategy...)
	return out
}

// registerIfChanged registers a new task-definition revision when the
// diff computed in checkDeploy found the container definitions changed,
// writing the new ARN onto the record for the create/update call below.
func (e *Engine) registerIfChanged(ctx context.Context, client *cloudapi.Client, svc *model.Service) error {
	if svc.IsSameTaskDefinition != nil && *svc.IsSameTaskDefinition {
		svc.TaskDefinitionArn = svc.OriginTaskDefinitionArn
		return nil
	}
	arn, err := client.RegisterTaskDefinition(ctx, svc.TaskDefinition)
	if err != nil {
		return err
	}
	svc.TaskDefinitionArn = arn
	return nil
}

// deregisterStalePrimary retires the prior task-definition revision once
// the new one is confirmed stable, keeping only the active revision
// registered. Skipped when the revision didn't change.
func (e *Engine) deregisterStalePrimary(ctx context.Context, client *cloudapi.Client, svc *model.Service) error {
	if svc.IsSameTaskDefinition != nil && *svc.IsSameTaskDefinition {
		return nil
	}
	if svc.OriginTaskDefinitionArn == "" || svc.OriginTaskDefinitionArn == svc.TaskDefinitionArn {
		return nil
	}
	return client.DeregisterTaskDefinition(ctx, svc.OriginTaskDefinitionArn)
}

// startAfterDeploy is phase 9: restore the desired count on the
// stop-before buckets now that the new revision is live elsewhere,
// primary group first, waiting stable after each group.
func (e *Engine) startAfterDeploy(ctx context.Context, b buckets) {
	e.scaleUpAndWait(ctx, "start-after-deploy-primary", b.primaryStopBefore)
	e.scaleUpAndWait(ctx, "start-after-deploy", b.stopBefore)
}

func (e *Engine) scaleUpAndWait(ctx context.Context, phase string, services []*model.Service) {
	active := notErrored(services)
	runPhase(e, phase, active, func(ctx context.Context, client *cloudapi.Client, svc *model.Service) error {
		desired := svc.ResolveDesiredCount(e.opts.ServiceZeroKeep)
		in := cloudapi.CreateServiceInput{
			Cluster:               svc.Cluster,
			ServiceName:           svc.ServiceName,
			TaskDefinitionArn:     svc.TaskDefinitionArn,
			DesiredCount:          desired,
			MinimumHealthyPercent: svc.TaskEnvironment.MinimumHealthyPercent,
			MaximumPercent:        svc.TaskEnvironment.MaximumPercent,
			PlacementConstraints:  svc.PlacementConstraints,
		}
		if err := client.UpdateService(ctx, in); err != nil {
			return err
		}
		if err := client.WaitForStable(ctx, svc.Cluster, svc.ServiceName); err != nil {
			return err
		}
		return e.deregisterStalePrimary(ctx, client, svc)
	})
}
