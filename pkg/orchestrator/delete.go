package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/cuemby/taskctl/pkg/log"
	"github.com/cuemby/taskctl/pkg/model"
	"github.com/samber/lo"
)

// DeleteOptions carries the `delete` subcommand's flags: a target
// environment tag and AWS credentials, nothing else — this mode has no
// desired-state config, it only looks at what's actually live.
type DeleteOptions struct {
	Region      string
	Credentials cloudapi.Credentials
	Environment string
}

// DeleteTarget is one live resource the sweep found belonging to
// Environment, named for the confirmation prompt and the delete call
// that follows a "y".
type DeleteTarget struct {
	Kind              string // "service" or "scheduled-task"
	Cluster           string
	Name              string
	Family            string
	TaskDefinitionArn string // live service's current revision, carried for the confirmation prompt's audit trail
}

// DeleteResult is one target's outcome after confirmation.
type DeleteResult struct {
	Target DeleteTarget
	Err    error
}

// Enumerate sweeps every cluster in the account/region for live services,
// and every ManagedByMarker EventBridge rule, keeping only the ones whose
// resolved task-definition environment matches o.Environment. It is the
// read-only half of `delete` mode — nothing is deleted until the caller
// gets a "y" back from Confirm.
func Enumerate(ctx context.Context, o DeleteOptions) ([]DeleteTarget, error) {
	client, err := cloudapi.NewClient(ctx, o.Region, o.Credentials)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build cloudapi client: %w", err)
	}
	log.Info(fmt.Sprintf("sweeping account %s region %s for environment %s", client.AccountID, o.Region, o.Environment))

	var targets []DeleteTarget

	clusterArns, err := client.ListClusterArns(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: list clusters: %w", err)
	}
	for _, cluster := range clusterArns {
		names, err := client.ListServiceNames(ctx, cluster)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: list services in %s: %w", cluster, err)
		}
		if len(names) == 0 {
			continue
		}
		services, err := client.DescribeServicesBatched(ctx, cluster, names)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: describe services in %s: %w", cluster, err)
		}
		for _, svc := range services {
			if svc.TaskDefinition == nil || svc.ServiceName == nil {
				continue
			}
			td, _, err := client.DescribeTaskDefinition(ctx, *svc.TaskDefinition)
			if err != nil || td == nil {
				continue
			}
			env, err := td.Environment(model.EnvironmentService)
			if err != nil || env.Environment != o.Environment {
				continue
			}
			targets = append(targets, DeleteTarget{
				Kind:              "service",
				Cluster:           cluster,
				Name:              *svc.ServiceName,
				Family:            td.Family,
				TaskDefinitionArn: *svc.TaskDefinition,
			})
		}
	}

	rules, err := client.ListManagedRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: list managed rules: %w", err)
	}
	for _, rule := range rules {
		resp, err := client.EventBridge.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{Rule: aws.String(rule.Name)})
		if err != nil {
			continue
		}
		var taskDefArn string
		for _, t := range resp.Targets {
			if t.EcsParameters != nil && t.EcsParameters.TaskDefinitionArn != nil {
				taskDefArn = *t.EcsParameters.TaskDefinitionArn
				break
			}
		}
		if taskDefArn == "" {
			continue
		}
		td, _, err := client.DescribeTaskDefinition(ctx, taskDefArn)
		if err != nil || td == nil {
			continue
		}
		env, err := td.Environment(model.EnvironmentScheduledTask)
		if err != nil || env.Environment != o.Environment {
			continue
		}
		targets = append(targets, DeleteTarget{
			Kind:   "scheduled-task",
			Name:   rule.Name,
			Family: td.Family,
		})
	}

	return targets, nil
}

// Confirm prints every target to out and blocks on in for a line of
// input, returning true only for an exact "y" (a plain bufio prompt, no
// survey/prompt library pulled in for a single yes/no gate). Callers
// should check for a non-empty target list before calling Confirm.
func Confirm(targets []DeleteTarget, in io.Reader, out io.Writer) bool {
	fmt.Fprintf(out, "The following %d resource(s) will be deleted:\n", len(targets))
	for _, t := range targets {
		fmt.Fprintf(out, "  %s\t%s\t%s\t%s\n", t.Kind, t.Cluster, t.Name, t.TaskDefinitionArn)
	}
	fmt.Fprint(out, "Proceed? [y/N]: ")

	reader := bufio.NewReader(in)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line) == "y"
}

// Delete removes every confirmed target: a service via DeleteService
// (which itself scales to zero and waits stable before the delete call,
// since ECS rejects DeleteService on a nonzero-desired service), a
// scheduled task via RemoveTargetsAndDeleteRule. Each target is
// independent — one failure doesn't stop the rest, mirroring the
// record-scoped failure isolation the reconciliation engine uses.
func Delete(ctx context.Context, o DeleteOptions, targets []DeleteTarget) []DeleteResult {
	client, err := cloudapi.NewClient(ctx, o.Region, o.Credentials)
	if err != nil {
		return []DeleteResult{{Err: fmt.Errorf("orchestrator: build cloudapi client: %w", err)}}
	}

	return lo.Map(targets, func(t DeleteTarget, _ int) DeleteResult {
		switch t.Kind {
		case "service":
			return DeleteResult{Target: t, Err: client.DeleteService(ctx, t.Cluster, t.Name)}
		case "scheduled-task":
			return DeleteResult{Target: t, Err: client.RemoveTargetsAndDeleteRule(ctx, t.Name)}
		default:
			return DeleteResult{Target: t, Err: fmt.Errorf("orchestrator: unknown target kind %q", t.Kind)}
		}
	})
}
