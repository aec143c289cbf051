package reconciler

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/cuemby/taskctl/pkg/config"
	"github.com/cuemby/taskctl/pkg/model"
	"github.com/samber/lo"
)

// observedService is a live ECS service joined with its resolved task
// definition and the environment variables taskctl uses to re-identify
// its own resources. A service whose task definition doesn't carry the
// expected keys is still observed, just with a zero Environment —
// classify treats that as "not ours" and leaves it out of deleteServices.
type observedService struct {
	Cluster     string
	Name        string
	Describe    model.DescribeService
	TaskDefArn  string
	TaskDef     *model.TaskDefinition
	Environment model.TaskEnvironment
	HasEnv      bool
}

// observedScheduledTask is a live EventBridge rule carrying the
// ManagedByMarker description, joined with its target's task definition.
type observedScheduledTask struct {
	Rule        model.EventRule
	TaskDefArn  string
	TaskDef     *model.TaskDefinition
	Environment model.TaskEnvironment
	HasEnv      bool
}

// clusterJob is fetch's unit of work (one cluster list+describe pass).
// It isn't a desired-state record, so MarkError just keeps the last
// error around for logging rather than flipping any record's status.
type clusterJob struct {
	cluster string
	err     error
}

func (j *clusterJob) MarkError(err error) { j.err = err }

// ruleJob resolves a single managed EventRule's target task definition.
type ruleJob struct {
	rule model.EventRule
	err  error
}

func (j *ruleJob) MarkError(err error) { j.err = err }

// fetch is phase 1: for every cluster named by a desired service, list
// and describe every live service (batched by 10), resolve each one's
// task definition, and parse its environment markers; separately, list
// every EventBridge rule carrying the ManagedByMarker description and
// resolve its target's task definition.
func (e *Engine) fetch(ctx context.Context, result *config.Result, targetEnvironment string) ([]observedService, []observedScheduledTask, error) {
	services, err := e.fetchServices(ctx, result)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := e.fetchScheduledTasks(ctx, result)
	if err != nil {
		return nil, nil, err
	}
	return services, tasks, nil
}

func (e *Engine) fetchServices(ctx context.Context, result *config.Result) ([]observedService, error) {
	clusters := lo.Uniq(lo.Map(result.AllServices, func(s *model.Service, _ int) string { return s.Cluster }))
	jobs := lo.Map(clusters, func(c string, _ int) *clusterJob { return &clusterJob{cluster: c} })

	var (
		all []observedService
		mu  sync.Mutex
	)
	runPhase(e, "fetch-services", jobs, func(ctx context.Context, client *cloudapi.Client, job *clusterJob) error {
		names, err := client.ListServiceNames(ctx, job.cluster)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}
		services, err := client.DescribeServicesBatched(ctx, job.cluster, names)
		if err != nil {
			return err
		}
		batch := make([]observedService, 0, len(services))
		for _, svc := range services {
			obs := toObservedService(job.cluster, svc)
			if svc.TaskDefinition != nil {
				td, arn, err := client.DescribeTaskDefinition(ctx, *svc.TaskDefinition)
				if err == nil && td != nil {
					obs.TaskDef = td
					obs.TaskDefArn = arn
					if env, envErr := td.Environment(model.EnvironmentService); envErr == nil {
						obs.Environment = env
						obs.HasEnv = true
					}
				}
			}
			batch = append(batch, obs)
		}
		mu.Lock()
		all = append(all, batch...)
		mu.Unlock()
		return nil
	})

	return all, nil
}

func (e *Engine) fetchScheduledTasks(ctx context.Context, result *config.Result) ([]observedScheduledTask, error) {
	if len(result.AllScheduledTasks) == 0 {
		return nil, nil
	}

	rules, err := e.clientFor(0).ListManagedRules(ctx)
	if err != nil {
		return nil, err
	}
	jobs := lo.Map(rules, func(r model.EventRule, _ int) *ruleJob { return &ruleJob{rule: r} })

	var (
		all []observedScheduledTask
		mu  sync.Mutex
	)
	runPhase(e, "fetch-scheduled-tasks", jobs, func(ctx context.Context, client *cloudapi.Client, job *ruleJob) error {
		resp, err := client.EventBridge.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{Rule: aws.String(job.rule.Name)})
		if err != nil {
			return err
		}
		obs := observedScheduledTask{Rule: job.rule}
		for _, t := range resp.Targets {
			if t.EcsParameters == nil || t.EcsParameters.TaskDefinitionArn == nil {
				continue
			}
			arn := *t.EcsParameters.TaskDefinitionArn
			td, resolvedArn, err := client.DescribeTaskDefinition(ctx, arn)
			if err == nil && td != nil {
				obs.TaskDef = td
				obs.TaskDefArn = resolvedArn
				if env, envErr := td.Environment(model.EnvironmentScheduledTask); envErr == nil {
					obs.Environment = env
					obs.HasEnv = true
				}
			}
			break
		}
		mu.Lock()
		all = append(all, obs)
		mu.Unlock()
		return nil
	})

	return all, nil
}

func toObservedService(cluster string, svc ecstypes.Service) observedService {
	name := ""
	if svc.ServiceName != nil {
		name = *svc.ServiceName
	}
	status := ""
	if svc.Status != nil {
		status = *svc.Status
	}
	hasInProgress := false
	for _, d := range svc.Deployments {
		if d.RolloutState == ecstypes.DeploymentRolloutStateInProgress {
			hasInProgress = true
			break
		}
	}
	return observedService{
		Cluster: cluster,
		Name:    name,
		Describe: model.DescribeService{
			Cluster:             cluster,
			ServiceName:         name,
			Status:              status,
			DesiredCount:        int(svc.DesiredCount),
			RunningCount:        int(svc.RunningCount),
			HasInProgressDeploy: hasInProgress,
		},
	}
}
