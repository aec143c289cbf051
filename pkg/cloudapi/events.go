package cloudapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/cuemby/taskctl/pkg/model"
)

// targetID is the fixed EventBridge target ID taskctl uses for every rule
// it manages; a rule only ever has the one ECS-RunTask target, so there's
// no need to generate or track distinct IDs per rule.
const targetID = "taskctl-run-task"

// PutRule creates or updates a scheduled-task's EventRule, tagging it with
// model.ManagedByMarker so a later list pass can recognize it as
// taskctl-owned. Returns the rule's ARN.
func (c *Client) PutRule(ctx context.Context, ruleName, scheduleExpression string, enabled bool) (string, error) {
	var arn string
	err := withRetry(ctx, "PutRule", DefaultRetry, func() error {
		state := ebtypes.RuleStateEnabled
		if !enabled {
			state = ebtypes.RuleStateDisabled
		}
		resp, err := c.EventBridge.PutRule(ctx, &eventbridge.PutRuleInput{
			Name:               aws.String(ruleName),
			ScheduleExpression: aws.String(scheduleExpression),
			State:              state,
			Description:        aws.String(model.ManagedByMarker),
		})
		if err != nil {
			return err
		}
		arn = aws.ToString(resp.RuleArn)
		return nil
	})
	return arn, err
}

// PutTargetsRunTask points a rule at an ECS RunTask target on the given
// cluster/task definition, assuming the IAM role that lets EventBridge
// invoke ECS on taskctl's behalf.
func (c *Client) PutTargetsRunTask(ctx context.Context, ruleName, ecsClusterArn, taskDefinitionArn, roleArn string, taskCount int) error {
	return withRetry(ctx, "PutTargets", DefaultRetry, func() error {
		_, err := c.EventBridge.PutTargets(ctx, &eventbridge.PutTargetsInput{
			Rule: aws.String(ruleName),
			Targets: []ebtypes.Target{
				{
					Id:      aws.String(targetID),
					Arn:     aws.String(ecsClusterArn),
					RoleArn: aws.String(roleArn),
					EcsParameters: &ebtypes.EcsParameters{
						TaskDefinitionArn: aws.String(taskDefinitionArn),
						TaskCount:         aws.Int32(int32(taskCount)),
						LaunchType:        ebtypes.LaunchTypeFargate,
					},
				},
			},
		})
		return err
	})
}

// PutTargetsLambda points a rule at a Lambda function target, used for
// the Lambda-backed scheduled task variant.
func (c *Client) PutTargetsLambda(ctx context.Context, ruleName, lambdaArn string) error {
	return withRetry(ctx, "PutTargets", DefaultRetry, func() error {
		_, err := c.EventBridge.PutTargets(ctx, &eventbridge.PutTargetsInput{
			Rule: aws.String(ruleName),
			Targets: []ebtypes.Target{
				{
					Id:  aws.String(targetID),
					Arn: aws.String(lambdaArn),
				},
			},
		})
		return err
	})
}

// RemoveTargetsAndDeleteRule tears down a scheduled task's EventRule: the
// control plane refuses DeleteRule while targets remain attached, so the
// target removal must happen first.
func (c *Client) RemoveTargetsAndDeleteRule(ctx context.Context, ruleName string) error {
	err := withRetry(ctx, "RemoveTargets", DefaultRetry, func() error {
		_, err := c.EventBridge.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
			Rule: aws.String(ruleName),
			Ids:  []string{targetID},
		})
		return err
	})
	if err != nil && err != ErrNotFound {
		return err
	}
	return withRetry(ctx, "DeleteRule", DefaultRetry, func() error {
		_, err := c.EventBridge.DeleteRule(ctx, &eventbridge.DeleteRuleInput{
			Name: aws.String(ruleName),
		})
		return err
	})
}

// DescribeRule fetches a single rule's metadata, returning (nil, nil) on
// NotFound.
func (c *Client) DescribeRule(ctx context.Context, ruleName string) (*model.EventRule, error) {
	var out *model.EventRule
	err := withRetry(ctx, "DescribeRule", DefaultRetry, func() error {
		resp, err := c.EventBridge.DescribeRule(ctx, &eventbridge.DescribeRuleInput{Name: aws.String(ruleName)})
		if err != nil {
			return err
		}
		out = &model.EventRule{
			Name:         aws.ToString(resp.Name),
			Description:  aws.ToString(resp.Description),
			ScheduleExpr: aws.ToString(resp.ScheduleExpression),
			State:        stateFromECS(resp.State),
		}
		return nil
	})
	if err == ErrNotFound {
		return nil, nil
	}
	return out, err
}

// ListManagedRules lists every EventBridge rule carrying
// model.ManagedByMarker as its description, the filter that decides
// ownership (fetch phase, scheduled-task side).
func (c *Client) ListManagedRules(ctx context.Context) ([]model.EventRule, error) {
	var out []model.EventRule
	paginator := eventbridge.NewListRulesPaginator(c.EventBridge, &eventbridge.ListRulesInput{})
	for paginator.HasMorePages() {
		var page *eventbridge.ListRulesOutput
		err := withRetry(ctx, "ListRules", DefaultRetry, func() error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, r := range page.Rules {
			rule := model.EventRule{
				Name:         aws.ToString(r.Name),
				Description:  aws.ToString(r.Description),
				ScheduleExpr: aws.ToString(r.ScheduleExpression),
				State:        stateFromECS(r.State),
			}
			if rule.ManagedByTaskctl() {
				out = append(out, rule)
			}
		}
	}
	return out, nil
}

func stateFromECS(s ebtypes.RuleState) model.ScheduleState {
	if s == ebtypes.RuleStateDisabled {
		return model.ScheduleDisabled
	}
	return model.ScheduleEnabled
}
