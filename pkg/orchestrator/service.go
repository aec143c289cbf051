package orchestrator

import (
	"context"
	"fmt"

	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/cuemby/taskctl/pkg/config"
	"github.com/cuemby/taskctl/pkg/log"
	"github.com/cuemby/taskctl/pkg/metrics"
	"github.com/cuemby/taskctl/pkg/reconciler"
)

// ServiceOptions carries every `service` subcommand flag. Region and
// Credentials build the cloudapi pool; the rest either shape the config
// load or pass straight through to reconciler.Options.
type ServiceOptions struct {
	Region      string
	Credentials cloudapi.Credentials

	ServicesYAML              string
	EnvironmentYAML           string
	TaskDefinitionTemplateDir string
	TaskDefinitionConfigJSON  string
	TaskDefinitionConfigEnv   bool
	TemplateGroup             string
	DeployServiceGroup        string

	ThreadsCount                  int
	ServiceZeroKeep               bool
	StopBeforeDeploy              bool
	DeleteUnusedService           bool
	ServiceWaitMaxAttempts        int
	ServiceWaitDelay              int
	PlacementStrategyBinpackFirst bool

	// TestOnly runs load-then-stop: the config loads and validates but no
	// cloudapi pool is built and no cloud call is ever made. Equivalent to
	// test-templates but against a single environment.yaml.
	TestOnly bool
	DryRun   bool
}

// load picks the legacy or modern loader from which flags were set: a
// template dir + config json means legacy, services-yaml + environment-
// yaml means modern. Both set is rejected, neither set is rejected — a
// `service` run always has exactly one config source.
func (o ServiceOptions) load() (*config.Result, error) {
	opts := config.Options{
		IncludeProcessEnv:  o.TaskDefinitionConfigEnv,
		TemplateGroup:      o.TemplateGroup,
		DeployServiceGroup: o.DeployServiceGroup,
	}

	legacy := o.TaskDefinitionTemplateDir != "" && o.TaskDefinitionConfigJSON != ""
	modern := o.ServicesYAML != "" && o.EnvironmentYAML != ""

	switch {
	case legacy && modern:
		return nil, fmt.Errorf("orchestrator: specify either --services-yaml/--environment-yaml or --task-definition-template-dir/--task-definition-config-json, not both")
	case legacy:
		return config.LoadLegacy(o.TaskDefinitionTemplateDir, o.TaskDefinitionConfigJSON, opts)
	case modern:
		return config.LoadModern(o.ServicesYAML, o.EnvironmentYAML, opts)
	default:
		return nil, fmt.Errorf("orchestrator: no config source given")
	}
}

// RunService implements the `service` and `service --dry-run` modes: load
// desired state, optionally stop after load (--test), then drive the
// reconciliation engine. DryRun is forwarded to reconciler.Options, which
// already implements the read-only Fetch→Classify→Check-Delete→Check-
// Deploy subset itself.
func RunService(ctx context.Context, o ServiceOptions) (*reconciler.Report, error) {
	result, err := o.load()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load config: %w", err)
	}
	metrics.UpdateComponent("config", true, "loaded")

	if !o.StopBeforeDeploy {
		for _, s := range result.AllServices {
			s.StopBeforeDeploy = false
		}
	}

	if o.TestOnly {
		log.Info(fmt.Sprintf("test mode: loaded %d services, %d scheduled tasks, zero cloud calls made", len(result.AllServices), len(result.AllScheduledTasks)))
		return &reconciler.Report{DryRun: true}, nil
	}

	clients, err := cloudapi.NewPool(ctx, o.Region, o.Credentials, o.ThreadsCount)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build cloudapi pool: %w", err)
	}
	metrics.UpdateComponent("cloudapi", true, "connected")
	if len(clients) > 0 {
		log.Info(fmt.Sprintf("reconciling account %s region %s", clients[0].AccountID, o.Region))
	}

	engine := reconciler.NewEngine(clients, reconciler.Options{
		Threads:                       o.ThreadsCount,
		DryRun:                        o.DryRun,
		DeleteUnusedService:           o.DeleteUnusedService,
		ServiceZeroKeep:               o.ServiceZeroKeep,
		WaitDelaySeconds:              o.ServiceWaitDelay,
		WaitMaxAttempts:               o.ServiceWaitMaxAttempts,
		PlacementStrategyBinpackFirst: o.PlacementStrategyBinpackFirst,
	})

	report, err := engine.Run(ctx, result, environmentOf(result), o.TemplateGroup)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: reconcile: %w", err)
	}
	return report, nil
}

// environmentOf derives the run's target environment tag from the first
// desired record, all of which were loaded against the same
// environment.yaml and so all carry the same ENVIRONMENT value.
func environmentOf(result *config.Result) string {
	if len(result.AllServices) > 0 {
		return result.AllServices[0].TaskEnvironment.Environment
	}
	if len(result.AllScheduledTasks) > 0 {
		return result.AllScheduledTasks[0].TaskEnvironment.Environment
	}
	return ""
}
