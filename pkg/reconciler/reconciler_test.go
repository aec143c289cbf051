package reconciler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/smithy-go"
	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/cuemby/taskctl/pkg/config"
	"github.com/cuemby/taskctl/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeECS is an in-memory ECS control plane: enough of the surface for the
// reconciler's pipeline to drive create/update/delete/stop against a
// map-backed store instead of real AWS.
type fakeECS struct {
	services  map[string]ecstypes.Service // key: cluster/name
	taskDefs  map[string]ecstypes.TaskDefinition
	nextRev   int
	runningOf map[string][]string // key: cluster/family -> task arns
}

func newFakeECS() *fakeECS {
	return &fakeECS{
		services:  map[string]ecstypes.Service{},
		taskDefs:  map[string]ecstypes.TaskDefinition{},
		runningOf: map[string][]string{},
	}
}

func key(cluster, name string) string { return cluster + "/" + name }

func (f *fakeECS) DescribeClusters(ctx context.Context, in *ecs.DescribeClustersInput, opts ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error) {
	return &ecs.DescribeClustersOutput{}, nil
}

func (f *fakeECS) ListServices(ctx context.Context, in *ecs.ListServicesInput, opts ...func(*ecs.Options)) (*ecs.ListServicesOutput, error) {
	var arns []string
	for k, svc := range f.services {
		if k[:len(*in.Cluster)] == *in.Cluster {
			arns = append(arns, *svc.ServiceArn)
		}
	}
	return &ecs.ListServicesOutput{ServiceArns: arns}, nil
}

func (f *fakeECS) DescribeServices(ctx context.Context, in *ecs.DescribeServicesInput, opts ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error) {
	var out []ecstypes.Service
	for _, name := range in.Services {
		// Real ECS accepts a service name or ARN; this fake's ARNs are "arn:"+name.
		if svc, ok := f.services[key(*in.Cluster, strings.TrimPrefix(name, "arn:"))]; ok {
			out = append(out, svc)
		}
	}
	return &ecs.DescribeServicesOutput{Services: out}, nil
}

func (f *fakeECS) DescribeTaskDefinition(ctx context.Context, in *ecs.DescribeTaskDefinitionInput, opts ...func(*ecs.Options)) (*ecs.DescribeTaskDefinitionOutput, error) {
	td, ok := f.taskDefs[*in.TaskDefinition]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ClientException", Message: "not found"}
	}
	return &ecs.DescribeTaskDefinitionOutput{TaskDefinition: &td}, nil
}

func (f *fakeECS) RegisterTaskDefinition(ctx context.Context, in *ecs.RegisterTaskDefinitionInput, opts ...func(*ecs.Options)) (*ecs.RegisterTaskDefinitionOutput, error) {
	f.nextRev++
	family := *in.Family
	arn := family + ":" + string(rune('0'+f.nextRev))
	td := ecstypes.TaskDefinition{
		Family:               &family,
		Revision:             int32(f.nextRev),
		TaskDefinitionArn:    &arn,
		ContainerDefinitions: in.ContainerDefinitions,
	}
	f.taskDefs[arn] = td
	return &ecs.RegisterTaskDefinitionOutput{TaskDefinition: &td}, nil
}

func (f *fakeECS) DeregisterTaskDefinition(ctx context.Context, in *ecs.DeregisterTaskDefinitionInput, opts ...func(*ecs.Options)) (*ecs.DeregisterTaskDefinitionOutput, error) {
	delete(f.taskDefs, *in.TaskDefinition)
	return &ecs.DeregisterTaskDefinitionOutput{}, nil
}

func (f *fakeECS) CreateService(ctx context.Context, in *ecs.CreateServiceInput, opts ...func(*ecs.Options)) (*ecs.CreateServiceOutput, error) {
	active := "ACTIVE"
	svc := ecstypes.Service{
		ServiceArn:     strPtr("arn:" + *in.ServiceName),
		ServiceName:    in.ServiceName,
		Status:         &active,
		DesiredCount:   aws32(in.DesiredCount),
		RunningCount:   aws32(in.DesiredCount),
		TaskDefinition: in.TaskDefinition,
	}
	f.services[key(*in.Cluster, *in.ServiceName)] = svc
	return &ecs.CreateServiceOutput{Service: &svc}, nil
}

func (f *fakeECS) UpdateService(ctx context.Context, in *ecs.UpdateServiceInput, opts ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error) {
	k := key(*in.Cluster, *in.Service)
	svc, ok := f.services[k]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ServiceNotFoundException", Message: "no such service"}
	}
	if in.DesiredCount != nil {
		svc.DesiredCount = *in.DesiredCount
		svc.RunningCount = *in.DesiredCount
	}
	if in.TaskDefinition != nil {
		svc.TaskDefinition = in.TaskDefinition
	}
	f.services[k] = svc
	return &ecs.UpdateServiceOutput{Service: &svc}, nil
}

func (f *fakeECS) DeleteService(ctx context.Context, in *ecs.DeleteServiceInput, opts ...func(*ecs.Options)) (*ecs.DeleteServiceOutput, error) {
	k := key(*in.Cluster, *in.Service)
	svc := f.services[k]
	delete(f.services, k)
	return &ecs.DeleteServiceOutput{Service: &svc}, nil
}

func (f *fakeECS) ListTasks(ctx context.Context, in *ecs.ListTasksInput, opts ...func(*ecs.Options)) (*ecs.ListTasksOutput, error) {
	arns := f.runningOf[key(*in.Cluster, *in.Family)]
	return &ecs.ListTasksOutput{TaskArns: arns}, nil
}

func (f *fakeECS) DescribeTasks(ctx context.Context, in *ecs.DescribeTasksInput, opts ...func(*ecs.Options)) (*ecs.DescribeTasksOutput, error) {
	stopped := "STOPPED"
	var out []ecstypes.Task
	for _, arn := range in.Tasks {
		a := arn
		out = append(out, ecstypes.Task{TaskArn: &a, LastStatus: &stopped})
	}
	return &ecs.DescribeTasksOutput{Tasks: out}, nil
}

func (f *fakeECS) StopTask(ctx context.Context, in *ecs.StopTaskInput, opts ...func(*ecs.Options)) (*ecs.StopTaskOutput, error) {
	return &ecs.StopTaskOutput{}, nil
}

func (f *fakeECS) RunTask(ctx context.Context, in *ecs.RunTaskInput, opts ...func(*ecs.Options)) (*ecs.RunTaskOutput, error) {
	return &ecs.RunTaskOutput{}, nil
}

func (f *fakeECS) ListClusters(ctx context.Context, in *ecs.ListClustersInput, opts ...func(*ecs.Options)) (*ecs.ListClustersOutput, error) {
	return &ecs.ListClustersOutput{}, nil
}

func strPtr(s string) *string { return &s }
func aws32(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}

// fakeEventBridge and fakeLambda are no-op stand-ins; the service-only
// scenarios below never touch scheduled tasks.
type fakeEventBridge struct{}

func (f *fakeEventBridge) PutRule(ctx context.Context, in *eventbridge.PutRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error) {
	arn := "arn:aws:events:rule/" + *in.Name
	return &eventbridge.PutRuleOutput{RuleArn: &arn}, nil
}
func (f *fakeEventBridge) PutTargets(ctx context.Context, in *eventbridge.PutTargetsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error) {
	return &eventbridge.PutTargetsOutput{}, nil
}
func (f *fakeEventBridge) RemoveTargets(ctx context.Context, in *eventbridge.RemoveTargetsInput, opts ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error) {
	return &eventbridge.RemoveTargetsOutput{}, nil
}
func (f *fakeEventBridge) DeleteRule(ctx context.Context, in *eventbridge.DeleteRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error) {
	return &eventbridge.DeleteRuleOutput{}, nil
}
func (f *fakeEventBridge) DescribeRule(ctx context.Context, in *eventbridge.DescribeRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.DescribeRuleOutput, error) {
	return nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException"}
}
func (f *fakeEventBridge) ListRules(ctx context.Context, in *eventbridge.ListRulesInput, opts ...func(*eventbridge.Options)) (*eventbridge.ListRulesOutput, error) {
	return &eventbridge.ListRulesOutput{Rules: []eventbridgetypes.Rule{}}, nil
}
func (f *fakeEventBridge) ListTargetsByRule(ctx context.Context, in *eventbridge.ListTargetsByRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.ListTargetsByRuleOutput, error) {
	return &eventbridge.ListTargetsByRuleOutput{}, nil
}

type fakeLambda struct{}

func (f *fakeLambda) AddPermission(ctx context.Context, in *lambda.AddPermissionInput, opts ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error) {
	return &lambda.AddPermissionOutput{}, nil
}
func (f *fakeLambda) RemovePermission(ctx context.Context, in *lambda.RemovePermissionInput, opts ...func(*lambda.Options)) (*lambda.RemovePermissionOutput, error) {
	return nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException"}
}

func testClient(ecsAPI *fakeECS) *cloudapi.Client {
	return &cloudapi.Client{
		ECS:          ecsAPI,
		EventBridge:  &fakeEventBridge{},
		Lambda:       &fakeLambda{},
		WaitDelay:    0,
		WaitAttempts: 1,
	}
}

func webTaskDefinition() model.TaskDefinition {
	return model.TaskDefinition{
		Family: "web",
		ContainerDefinitions: []model.ContainerDefinition{
			{
				"name":  "web",
				"image": "web:v1",
				"environment": []model.EnvPair{
					{Name: "ENVIRONMENT", Value: "prod"},
					{Name: "CLUSTER_NAME", Value: "main"},
					{Name: "DESIRED_COUNT", Value: "2"},
				},
			},
		},
	}
}

func webService() *model.Service {
	return &model.Service{
		Family:      "web",
		ServiceName: "web-service",
		Cluster:     "main",
		TaskEnvironment: model.TaskEnvironment{
			Environment:           "prod",
			ClusterName:           "main",
			DesiredCount:          2,
			MinimumHealthyPercent: 50,
			MaximumPercent:        200,
		},
		TaskDefinition: webTaskDefinition(),
	}
}

func TestEngineRunCreatesNewService(t *testing.T) {
	ecsAPI := newFakeECS()
	client := testClient(ecsAPI)
	engine := NewEngine([]*cloudapi.Client{client}, DefaultOptions())

	svc := webService()
	result := &config.Result{
		AllServices:    []*model.Service{svc},
		DeployServices: []*model.Service{svc},
	}

	report, err := engine.Run(context.Background(), result, "prod", "")
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Equal(t, model.StatusNormal, svc.Status)

	stored, ok := ecsAPI.services[key("main", "web-service")]
	require.True(t, ok)
	assert.EqualValues(t, 2, stored.DesiredCount)
}

func TestEngineRunDeletesUnusedService(t *testing.T) {
	ecsAPI := newFakeECS()
	active := "ACTIVE"
	name := "orphan-service"
	ecsAPI.services[key("main", name)] = ecstypes.Service{
		ServiceArn:     strPtr("arn:" + name),
		ServiceName:    &name,
		Status:         &active,
		DesiredCount:   2,
		RunningCount:   2,
		TaskDefinition: strPtr("arn:orphan-td"),
	}
	orphanFamily := "orphan"
	ecsAPI.taskDefs["arn:orphan-td"] = ecstypes.TaskDefinition{
		Family:            &orphanFamily,
		TaskDefinitionArn: strPtr("arn:orphan-td"),
		ContainerDefinitions: []ecstypes.ContainerDefinition{
			{
				Name: strPtr("orphan"),
				Environment: []ecstypes.KeyValuePair{
					{Name: strPtr("ENVIRONMENT"), Value: strPtr("prod")},
					{Name: strPtr("CLUSTER_NAME"), Value: strPtr("main")},
					{Name: strPtr("DESIRED_COUNT"), Value: strPtr("2")},
				},
			},
		},
	}

	client := testClient(ecsAPI)
	engine := NewEngine([]*cloudapi.Client{client}, DefaultOptions())

	// A desired service in the same cluster is required so fetch has a
	// cluster to scan in the first place — taskctl only ever looks at
	// clusters named by its own desired state, never discovers clusters
	// out of thin air.
	svc := webService()
	result := &config.Result{AllServices: []*model.Service{svc}}

	report, err := engine.Run(context.Background(), result, "prod", "")
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Len(t, report.DeletedServices, 1)
	assert.Equal(t, name, report.DeletedServices[0].ServiceName)

	_, stillExists := ecsAPI.services[key("main", name)]
	assert.False(t, stillExists)
}

func TestEngineRunDryRunMutatesNothing(t *testing.T) {
	ecsAPI := newFakeECS()
	client := testClient(ecsAPI)
	opts := DefaultOptions()
	opts.DryRun = true
	engine := NewEngine([]*cloudapi.Client{client}, opts)

	svc := webService()
	result := &config.Result{
		AllServices:    []*model.Service{svc},
		DeployServices: []*model.Service{svc},
	}

	report, err := engine.Run(context.Background(), result, "prod", "")
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Empty(t, ecsAPI.services)
}

func TestPartitionSortsIntoFourBuckets(t *testing.T) {
	primaryStop := &model.Service{IsPrimaryPlacement: true, StopBeforeDeploy: true, OriginDesiredCount: 1}
	stop := &model.Service{StopBeforeDeploy: true, OriginDesiredCount: 1}
	primary := &model.Service{IsPrimaryPlacement: true}
	remain := &model.Service{}

	b := partition([]*model.Service{primaryStop, stop, primary, remain})
	assert.Equal(t, []*model.Service{primaryStop}, b.primaryStopBefore)
	assert.Equal(t, []*model.Service{stop}, b.stopBefore)
	assert.Equal(t, []*model.Service{primary}, b.primaryDeploy)
	assert.Equal(t, []*model.Service{remain}, b.remainDeploy)
	assert.Equal(t, []*model.Service{primaryStop, stop}, b.stopBeforeAll())
}

func TestNotErroredFiltersErroredRecords(t *testing.T) {
	ok := &model.Service{}
	bad := &model.Service{}
	bad.MarkError(errors.New("boom"))

	out := notErrored([]*model.Service{ok, bad})
	assert.Equal(t, []*model.Service{ok}, out)
}
