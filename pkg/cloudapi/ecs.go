package cloudapi

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/cuemby/taskctl/pkg/model"
)

// describeServicesBatchSize is ECS's hard limit on the serviceNames slice
// accepted by a single DescribeServices call.
const describeServicesBatchSize = 10

// DescribeCluster fetches a single cluster by name or ARN, returning
// ErrNotFound if it does not exist.
func (c *Client) DescribeCluster(ctx context.Context, cluster string) (ecstypes.Cluster, error) {
	var out ecstypes.Cluster
	err := withRetry(ctx, "DescribeClusters", DefaultRetry, func() error {
		resp, err := c.ECS.DescribeClusters(ctx, &ecs.DescribeClustersInput{
			Clusters: []string{cluster},
		})
		if err != nil {
			return err
		}
		if len(resp.Clusters) == 0 {
			return ErrNotFound
		}
		out = resp.Clusters[0]
		return nil
	})
	return out, err
}

// ListClusterArns paginates ListClusters and returns every cluster ARN in
// the account/region, for `delete` mode's environment-wide sweep — the
// one place taskctl discovers clusters it wasn't told about by desired
// state.
func (c *Client) ListClusterArns(ctx context.Context) ([]string, error) {
	var arns []string
	paginator := ecs.NewListClustersPaginator(c.ECS, &ecs.ListClustersInput{})
	for paginator.HasMorePages() {
		var page *ecs.ListClustersOutput
		err := withRetry(ctx, "ListClusters", DefaultRetry, func() error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		arns = append(arns, page.ClusterArns...)
	}
	return arns, nil
}

// ListServiceNames paginates ListServices for a cluster and returns every
// service ARN/name found.
func (c *Client) ListServiceNames(ctx context.Context, cluster string) ([]string, error) {
	var names []string
	paginator := ecs.NewListServicesPaginator(c.ECS, &ecs.ListServicesInput{Cluster: aws.String(cluster)})
	for paginator.HasMorePages() {
		var page *ecs.ListServicesOutput
		err := withRetry(ctx, "ListServices", DefaultRetry, func() error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		names = append(names, page.ServiceArns...)
	}
	return names, nil
}

// DescribeServicesBatched calls DescribeServices in batches of at most
// describeServicesBatchSize names, accumulating every found service and
// only returning an error if every batch failed outright (individual
// services missing from a successful batch are simply absent from the
// result, not an error — the caller treats a missing name as "doesn't
// exist yet").
func (c *Client) DescribeServicesBatched(ctx context.Context, cluster string, names []string) ([]ecstypes.Service, error) {
	var (
		all        []ecstypes.Service
		lastErr    error
		sawSuccess bool
	)
	for start := 0; start < len(names); start += describeServicesBatchSize {
		end := start + describeServicesBatchSize
		if end > len(names) {
			end = len(names)
		}
		batch := names[start:end]

		var resp *ecs.DescribeServicesOutput
		err := withRetry(ctx, "DescribeServices", DefaultRetry, func() error {
			var err error
			resp, err = c.ECS.DescribeServices(ctx, &ecs.DescribeServicesInput{
				Cluster:  aws.String(cluster),
				Services: batch,
			})
			return err
		})
		if err != nil {
			lastErr = err
			continue
		}
		sawSuccess = true
		all = append(all, resp.Services...)
	}
	if !sawSuccess && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

// DescribeActiveService finds the ACTIVE service among the describe
// results for a family/service name, preferring it over any DRAINING
// duplicate left behind by a prior failed teardown.
func DescribeActiveService(services []ecstypes.Service, name string) (ecstypes.Service, bool) {
	var fallback ecstypes.Service
	found := false
	for _, s := range services {
		if aws.ToString(s.ServiceName) != name {
			continue
		}
		if s.Status != nil && *s.Status == "ACTIVE" {
			return s, true
		}
		fallback = s
		found = true
	}
	return fallback, found
}

// DescribeTaskDefinition fetches a single task definition by family or
// ARN, returning (nil, nil) on NotFound so callers can treat "never
// registered" as a normal absent-origin case rather than an error.
func (c *Client) DescribeTaskDefinition(ctx context.Context, familyOrArn string) (*model.TaskDefinition, string, error) {
	var (
		td  ecstypes.TaskDefinition
		arn string
	)
	err := withRetry(ctx, "DescribeTaskDefinition", DefaultRetry, func() error {
		resp, err := c.ECS.DescribeTaskDefinition(ctx, &ecs.DescribeTaskDefinitionInput{
			TaskDefinition: aws.String(familyOrArn),
		})
		if err != nil {
			return err
		}
		td = *resp.TaskDefinition
		arn = aws.ToString(td.TaskDefinitionArn)
		return nil
	})
	if err == ErrNotFound {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	out := &model.TaskDefinition{
		Family:                  aws.ToString(td.Family),
		ContainerDefinitions:    fromECSContainerDefinitions(td.ContainerDefinitions),
		TaskRoleArn:             aws.ToString(td.TaskRoleArn),
		ExecutionRoleArn:        aws.ToString(td.ExecutionRoleArn),
		NetworkMode:             string(td.NetworkMode),
		RequiresCompatibilities: compatibilitiesToStrings(td.RequiresCompatibilities),
		CPU:                     aws.ToString(td.Cpu),
		Memory:                  aws.ToString(td.Memory),
		Arn:                     arn,
	}
	return out, arn, nil
}

func compatibilitiesToStrings(in []ecstypes.Compatibility) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = string(c)
	}
	return out
}

// RegisterTaskDefinition registers a new task definition revision and
// returns its ARN.
func (c *Client) RegisterTaskDefinition(ctx context.Context, td model.TaskDefinition) (string, error) {
	var arn string
	err := withRetry(ctx, "RegisterTaskDefinition", RegisterTaskDefinitionRetry, func() error {
		in := &ecs.RegisterTaskDefinitionInput{
			Family:               aws.String(td.Family),
			ContainerDefinitions: toECSContainerDefinitions(td.ContainerDefinitions),
		}
		if td.TaskRoleArn != "" {
			in.TaskRoleArn = aws.String(td.TaskRoleArn)
		}
		if td.ExecutionRoleArn != "" {
			in.ExecutionRoleArn = aws.String(td.ExecutionRoleArn)
		}
		if td.NetworkMode != "" {
			in.NetworkMode = ecstypes.NetworkMode(td.NetworkMode)
		}
		if td.CPU != "" {
			in.Cpu = aws.String(td.CPU)
		}
		if td.Memory != "" {
			in.Memory = aws.String(td.Memory)
		}
		for _, rc := range td.RequiresCompatibilities {
			in.RequiresCompatibilities = append(in.RequiresCompatibilities, ecstypes.Compatibility(rc))
		}

		resp, err := c.ECS.RegisterTaskDefinition(ctx, in)
		if err != nil {
			return err
		}
		arn = aws.ToString(resp.TaskDefinition.TaskDefinitionArn)
		return nil
	})
	return arn, err
}

// DeregisterTaskDefinition deregisters a revision by ARN. Deregistering an
// already-deregistered revision is treated as success.
func (c *Client) DeregisterTaskDefinition(ctx context.Context, arn string) error {
	if arn == "" {
		return nil
	}
	return withRetry(ctx, "DeregisterTaskDefinition", DeregisterTaskDefinitionRetry, func() error {
		_, err := c.ECS.DeregisterTaskDefinition(ctx, &ecs.DeregisterTaskDefinitionInput{
			TaskDefinition: aws.String(arn),
		})
		return err
	})
}

// CreateServiceInput collects the fields needed to create or update a
// service, gathered here rather than threading model.Service directly so
// this package stays independent of the reconciler's record shape.
type CreateServiceInput struct {
	Cluster                       string
	ServiceName                   string
	TaskDefinitionArn             string
	DesiredCount                  int
	MinimumHealthyPercent         int
	MaximumPercent                int
	PlacementStrategy             []model.PlacementStrategy
	PlacementConstraints          []model.PlacementConstraint
	LoadBalancers                 []model.LoadBalancer
	HealthCheckGracePeriodSeconds int
	PlatformVersion               string
}

// CreateService creates a new ECS service.
func (c *Client) CreateService(ctx context.Context, in CreateServiceInput) error {
	return withRetry(ctx, "CreateService", DefaultRetry, func() error {
		req := &ecs.CreateServiceInput{
			Cluster:        aws.String(in.Cluster),
			ServiceName:    aws.String(in.ServiceName),
			TaskDefinition: aws.String(in.TaskDefinitionArn),
			DesiredCount:   aws.Int32(int32(in.DesiredCount)),
			DeploymentConfiguration: &ecstypes.DeploymentConfiguration{
				MinimumHealthyPercent: aws.Int32(int32(in.MinimumHealthyPercent)),
				MaximumPercent:        aws.Int32(int32(in.MaximumPercent)),
			},
		}
		if in.HealthCheckGracePeriodSeconds > 0 {
			req.HealthCheckGracePeriodSeconds = aws.Int32(int32(in.HealthCheckGracePeriodSeconds))
		}
		if in.PlatformVersion != "" {
			req.PlatformVersion = aws.String(in.PlatformVersion)
		}
		req.PlacementStrategy = toPlacementStrategies(in.PlacementStrategy)
		req.PlacementConstraints = toPlacementConstraints(in.PlacementConstraints)
		req.LoadBalancers = toLoadBalancers(in.LoadBalancers)

		_, err := c.ECS.CreateService(ctx, req)
		return err
	})
}

// UpdateService updates an existing ECS service's task definition and
// desired count.
func (c *Client) UpdateService(ctx context.Context, in CreateServiceInput) error {
	return withRetry(ctx, "UpdateService", UpdateServiceRetry, func() error {
		req := &ecs.UpdateServiceInput{
			Cluster:            aws.String(in.Cluster),
			Service:            aws.String(in.ServiceName),
			TaskDefinition:     aws.String(in.TaskDefinitionArn),
			DesiredCount:       aws.Int32(int32(in.DesiredCount)),
			ForceNewDeployment: aws.Bool(true),
			DeploymentConfiguration: &ecstypes.DeploymentConfiguration{
				MinimumHealthyPercent: aws.Int32(int32(in.MinimumHealthyPercent)),
				MaximumPercent:        aws.Int32(int32(in.MaximumPercent)),
			},
		}
		req.PlacementConstraints = toPlacementConstraints(in.PlacementConstraints)
		_, err := c.ECS.UpdateService(ctx, req)
		return err
	})
}

// DeleteService performs the three-step delete: scale to zero, wait for
// stable, then delete. ECS rejects DeleteService on a service with
// nonzero desired count, so this ordering is mandatory, not an
// optimization.
func (c *Client) DeleteService(ctx context.Context, cluster, serviceName string) error {
	err := withRetry(ctx, "UpdateService", UpdateServiceRetry, func() error {
		_, err := c.ECS.UpdateService(ctx, &ecs.UpdateServiceInput{
			Cluster:      aws.String(cluster),
			Service:      aws.String(serviceName),
			DesiredCount: aws.Int32(0),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("cloudapi: scale down before delete: %w", err)
	}
	if err := c.WaitForStable(ctx, cluster, serviceName); err != nil {
		return fmt.Errorf("cloudapi: wait stable before delete: %w", err)
	}
	return withRetry(ctx, "DeleteService", DefaultRetry, func() error {
		_, err := c.ECS.DeleteService(ctx, &ecs.DeleteServiceInput{
			Cluster: aws.String(cluster),
			Service: aws.String(serviceName),
		})
		return err
	})
}

func toPlacementStrategies(in []model.PlacementStrategy) []ecstypes.PlacementStrategy {
	out := make([]ecstypes.PlacementStrategy, 0, len(in))
	for _, p := range in {
		var ps ecstypes.PlacementStrategy
		if v, ok := p["type"].(string); ok {
			ps.Type = ecstypes.PlacementStrategyType(v)
		}
		if v, ok := p["field"].(string); ok {
			ps.Field = aws.String(v)
		}
		out = append(out, ps)
	}
	return out
}

func toPlacementConstraints(in []model.PlacementConstraint) []ecstypes.PlacementConstraint {
	out := make([]ecstypes.PlacementConstraint, 0, len(in))
	for _, p := range in {
		var pc ecstypes.PlacementConstraint
		if v, ok := p["type"].(string); ok {
			pc.Type = ecstypes.PlacementConstraintType(v)
		}
		if v, ok := p["expression"].(string); ok {
			pc.Expression = aws.String(v)
		}
		out = append(out, pc)
	}
	return out
}

func toLoadBalancers(in []model.LoadBalancer) []ecstypes.LoadBalancer {
	out := make([]ecstypes.LoadBalancer, 0, len(in))
	for _, p := range in {
		var lb ecstypes.LoadBalancer
		if v, ok := p["targetGroupArn"].(string); ok {
			lb.TargetGroupArn = aws.String(v)
		}
		if v, ok := p["containerName"].(string); ok {
			lb.ContainerName = aws.String(v)
		}
		if v, ok := toInt32(p["containerPort"]); ok {
			lb.ContainerPort = aws.Int32(v)
		}
		out = append(out, lb)
	}
	return out
}

// WaitForStable polls DescribeServices until runningCount == desiredCount
// and there is no deployment in progress, or returns ErrWaiterTimeout
// after Client.WaitAttempts polls. A manual poll loop rather than an
// SDK-generated waiter, because a timeout here must be an ordinary
// record-scoped error the reconciler can record on the Service, not a
// waiter package panic.
func (c *Client) WaitForStable(ctx context.Context, cluster, serviceName string) error {
	delay := time.Duration(c.WaitDelay) * time.Second
	attempts := c.WaitAttempts
	if attempts <= 0 {
		attempts = 20
	}

	for i := 0; i < attempts; i++ {
		services, err := c.DescribeServicesBatched(ctx, cluster, []string{serviceName})
		if err != nil {
			return err
		}
		svc, ok := DescribeActiveService(services, serviceName)
		if ok && stable(svc) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return ErrWaiterTimeout
}

func stable(svc ecstypes.Service) bool {
	if svc.RunningCount != svc.DesiredCount {
		return false
	}
	for _, d := range svc.Deployments {
		if d.RolloutState == ecstypes.DeploymentRolloutStateInProgress {
			return false
		}
	}
	return true
}

// ListRunningTaskArns lists every running task ARN for a family within a
// cluster, used by the scheduled-task stop-before-deploy phase.
func (c *Client) ListRunningTaskArns(ctx context.Context, cluster, family string) ([]string, error) {
	var arns []string
	err := withRetry(ctx, "ListTasks", DefaultRetry, func() error {
		resp, err := c.ECS.ListTasks(ctx, &ecs.ListTasksInput{
			Cluster: aws.String(cluster),
			Family:  aws.String(family),
		})
		if err != nil {
			return err
		}
		arns = resp.TaskArns
		return nil
	})
	return arns, err
}

// StopTask stops a single running task.
func (c *Client) StopTask(ctx context.Context, cluster, taskArn, reason string) error {
	return withRetry(ctx, "StopTask", DefaultRetry, func() error {
		_, err := c.ECS.StopTask(ctx, &ecs.StopTaskInput{
			Cluster: aws.String(cluster),
			Task:    aws.String(taskArn),
			Reason:  aws.String(reason),
		})
		return err
	})
}

// WaitTasksStopped polls DescribeTasks until every named task reports
// lastStatus STOPPED, or returns ErrWaiterTimeout after Client.WaitAttempts
// polls.
func (c *Client) WaitTasksStopped(ctx context.Context, cluster string, taskArns []string) error {
	if len(taskArns) == 0 {
		return nil
	}
	delay := time.Duration(c.WaitDelay) * time.Second
	attempts := c.WaitAttempts
	if attempts <= 0 {
		attempts = 20
	}

	for i := 0; i < attempts; i++ {
		var resp *ecs.DescribeTasksOutput
		err := withRetry(ctx, "DescribeTasks", DefaultRetry, func() error {
			var err error
			resp, err = c.ECS.DescribeTasks(ctx, &ecs.DescribeTasksInput{
				Cluster: aws.String(cluster),
				Tasks:   taskArns,
			})
			return err
		})
		if err != nil {
			return err
		}

		allStopped := true
		for _, t := range resp.Tasks {
			if aws.ToString(t.LastStatus) != "STOPPED" {
				allStopped = false
				break
			}
		}
		if allStopped {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return ErrWaiterTimeout
}

// RunTask launches a one-off task from a family's latest definition,
// used by the scheduled-task manual-trigger path.
func (c *Client) RunTask(ctx context.Context, cluster, taskDefinition string, count int) ([]string, error) {
	var arns []string
	err := withRetry(ctx, "RunTask", DefaultRetry, func() error {
		resp, err := c.ECS.RunTask(ctx, &ecs.RunTaskInput{
			Cluster:        aws.String(cluster),
			TaskDefinition: aws.String(taskDefinition),
			Count:          aws.Int32(int32(count)),
		})
		if err != nil {
			return err
		}
		for _, t := range resp.Tasks {
			arns = append(arns, aws.ToString(t.TaskArn))
		}
		return nil
	})
	return arns, err
}
