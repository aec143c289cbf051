package cloudapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Credentials optionally overrides the default AWS credential chain with a
// static access key pair, the `--key`/`--secret` CLI flags' destination.
// A zero Credentials leaves the default chain (env vars, shared config,
// instance role, ...) untouched.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

func (c Credentials) empty() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == ""
}

// ECSAPI is the subset of the ECS client this package depends on, grounded
// on the one-interface-per-service wrapping pattern (each method signature
// matches the corresponding *ecs.Client method so the real SDK type
// satisfies this interface with no adapter).
type ECSAPI interface {
	DescribeClusters(ctx context.Context, in *ecs.DescribeClustersInput, opts ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error)
	ListClusters(ctx context.Context, in *ecs.ListClustersInput, opts ...func(*ecs.Options)) (*ecs.ListClustersOutput, error)
	ListServices(ctx context.Context, in *ecs.ListServicesInput, opts ...func(*ecs.Options)) (*ecs.ListServicesOutput, error)
	DescribeServices(ctx context.Context, in *ecs.DescribeServicesInput, opts ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error)
	DescribeTaskDefinition(ctx context.Context, in *ecs.DescribeTaskDefinitionInput, opts ...func(*ecs.Options)) (*ecs.DescribeTaskDefinitionOutput, error)
	RegisterTaskDefinition(ctx context.Context, in *ecs.RegisterTaskDefinitionInput, opts ...func(*ecs.Options)) (*ecs.RegisterTaskDefinitionOutput, error)
	DeregisterTaskDefinition(ctx context.Context, in *ecs.DeregisterTaskDefinitionInput, opts ...func(*ecs.Options)) (*ecs.DeregisterTaskDefinitionOutput, error)
	CreateService(ctx context.Context, in *ecs.CreateServiceInput, opts ...func(*ecs.Options)) (*ecs.CreateServiceOutput, error)
	UpdateService(ctx context.Context, in *ecs.UpdateServiceInput, opts ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
	DeleteService(ctx context.Context, in *ecs.DeleteServiceInput, opts ...func(*ecs.Options)) (*ecs.DeleteServiceOutput, error)
	ListTasks(ctx context.Context, in *ecs.ListTasksInput, opts ...func(*ecs.Options)) (*ecs.ListTasksOutput, error)
	DescribeTasks(ctx context.Context, in *ecs.DescribeTasksInput, opts ...func(*ecs.Options)) (*ecs.DescribeTasksOutput, error)
	StopTask(ctx context.Context, in *ecs.StopTaskInput, opts ...func(*ecs.Options)) (*ecs.StopTaskOutput, error)
	RunTask(ctx context.Context, in *ecs.RunTaskInput, opts ...func(*ecs.Options)) (*ecs.RunTaskOutput, error)
}

// EventBridgeAPI is the subset of the EventBridge client scheduled-task
// rule management depends on.
type EventBridgeAPI interface {
	PutRule(ctx context.Context, in *eventbridge.PutRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error)
	PutTargets(ctx context.Context, in *eventbridge.PutTargetsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error)
	RemoveTargets(ctx context.Context, in *eventbridge.RemoveTargetsInput, opts ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, in *eventbridge.DeleteRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error)
	DescribeRule(ctx context.Context, in *eventbridge.DescribeRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.DescribeRuleOutput, error)
	ListRules(ctx context.Context, in *eventbridge.ListRulesInput, opts ...func(*eventbridge.Options)) (*eventbridge.ListRulesOutput, error)
	ListTargetsByRule(ctx context.Context, in *eventbridge.ListTargetsByRuleInput, opts ...func(*eventbridge.Options)) (*eventbridge.ListTargetsByRuleOutput, error)
}

// LambdaAPI is the subset of the Lambda client needed to let EventBridge
// invoke a function target.
type LambdaAPI interface {
	AddPermission(ctx context.Context, in *lambda.AddPermissionInput, opts ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error)
	RemovePermission(ctx context.Context, in *lambda.RemovePermissionInput, opts ...func(*lambda.Options)) (*lambda.RemovePermissionOutput, error)
}

// Client wraps one handle per AWS sub-service this package talks to.
// The reconciliation engine's worker pool hands each goroutine its own
// Client (built by NewPool), never an instance another running job holds.
type Client struct {
	ECS          ECSAPI
	EventBridge  EventBridgeAPI
	Lambda       LambdaAPI
	AccountID    string
	WaitDelay    int // seconds between waitForStable polls
	WaitAttempts int
}

// NewClient loads the default AWS credential chain and constructs one
// Client from it, grounded on the "LoadDefaultConfig once, NewFromConfig
// per sub-service" pattern. A non-empty creds overrides the chain with a
// static access key pair instead, the `--key`/`--secret` CLI flags' path.
func NewClient(ctx context.Context, region string, creds Credentials) (*Client, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if !creds.empty() {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cloudapi: load aws config: %w", err)
	}

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("cloudapi: get caller identity: %w", err)
	}

	return &Client{
		ECS:          ecs.NewFromConfig(cfg),
		EventBridge:  eventbridge.NewFromConfig(cfg),
		Lambda:       lambda.NewFromConfig(cfg),
		AccountID:    aws.ToString(identity.Account),
		WaitDelay:    6,
		WaitAttempts: 20,
	}, nil
}

// NewPool builds n independent Clients sharing the same credential chain
// and region, for the reconciliation engine's worker pool to lend out one
// per running job.
func NewPool(ctx context.Context, region string, creds Credentials, n int) ([]*Client, error) {
	if n < 1 {
		n = 1
	}
	pool := make([]*Client, 0, n)
	for i := 0; i < n; i++ {
		c, err := NewClient(ctx, region, creds)
		if err != nil {
			return nil, err
		}
		pool = append(pool, c)
	}
	return pool, nil
}
